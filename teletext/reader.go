package teletext

/*------------------------------------------------------------------
 *
 * Purpose:	Fixed-size sample-line record reader (spec.md §4.6, §6):
 *		one LineLength-byte record per captured VBI line, read back
 *		to back from a seekable file, with start/stop/step/limit
 *		bounds matching a CLI's --start/--stop/--step/--limit flags.
 *
 *------------------------------------------------------------------*/

import "io"

// LineSource reads fixed-size sample-line records from a seekable stream.
type LineSource struct {
	r    io.ReadSeeker
	cfg  *Config
	stop int // exclusive line index bound; 0 means unbounded
	step int
	limit int // max lines to yield; 0 means unbounded

	pos     int
	yielded int
}

// LineSourceOption configures a LineSource at construction time.
type LineSourceOption func(*LineSource)

func WithStart(n int) LineSourceOption { return func(s *LineSource) { s.pos = n } }
func WithStop(n int) LineSourceOption  { return func(s *LineSource) { s.stop = n } }
func WithStep(n int) LineSourceOption {
	return func(s *LineSource) {
		if n > 0 {
			s.step = n
		}
	}
}
func WithLimit(n int) LineSourceOption { return func(s *LineSource) { s.limit = n } }

// NewLineSource seeks r to the configured start line and returns a
// LineSource ready to read from it.
func NewLineSource(r io.ReadSeeker, cfg *Config, opts ...LineSourceOption) (*LineSource, error) {
	s := &LineSource{r: r, cfg: cfg, step: 1}
	for _, opt := range opts {
		opt(s)
	}

	if s.pos > 0 {
		if _, err := r.Seek(int64(s.pos)*int64(cfg.LineLength), io.SeekStart); err != nil {
			return nil, &Error{Kind: IOError, Msg: "seek to start line", Err: err}
		}
	}

	return s, nil
}

// Next reads the next line record and its absolute ordinal. It returns
// io.EOF (not wrapped) once the stream, stop bound, or limit is exhausted,
// so callers can use the usual `for { ...; if err == io.EOF { break } }` loop.
func (s *LineSource) Next() ([]byte, uint64, error) {
	if s.stop > 0 && s.pos >= s.stop {
		return nil, 0, io.EOF
	}
	if s.limit > 0 && s.yielded >= s.limit {
		return nil, 0, io.EOF
	}

	buf := make([]byte, s.cfg.LineLength)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, 0, io.EOF
		}
		return nil, 0, &Error{Kind: IOError, Msg: "read line", Err: err}
	}

	ordinal := uint64(s.pos)
	s.yielded++

	if s.step > 1 {
		skip := int64(s.step-1) * int64(s.cfg.LineLength)
		if _, err := s.r.Seek(skip, io.SeekCurrent); err != nil {
			return nil, 0, &Error{Kind: IOError, Msg: "seek past step", Err: err}
		}
	}
	s.pos += s.step

	return buf, ordinal, nil
}
