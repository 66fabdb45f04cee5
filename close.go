package rtdec

import "context"

// Close releases the session's resources: the round buffers stop accepting
// submissions and, if the session created its own device, the device is
// shut down. A device passed in via Builder.Device stays open for the
// caller. Close is idempotent.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.in.Close()
	var err error
	if s.ownsDev {
		err = s.dev.Close()
	}
	s.logger.LogSessionClose(context.Background(), s.frame.Cycles(), err)
	return err
}
