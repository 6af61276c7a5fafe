package psu

import "fmt"

// The methods below queue a command and return it immediately. Results
// arrive through RequestFinished, status polls through StatusReady.

func (s *Session) enqueue(kind Kind, channel int, value Value) (*Command, error) {
	if !s.codec.Supports(kind) {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnsupported, kind, s.codec.Family())
	}
	if !s.Connected() {
		return nil, ErrNotConnected
	}
	cmd := NewCommand(kind, channel, value)
	s.queue.Push(cmd)
	return cmd, nil
}

func (s *Session) checkChannel(channel int) error {
	if channel < 1 || channel > s.cfg.Channels {
		return fmt.Errorf("%w: %d (device has %d)", ErrInvalidChannel, channel, s.cfg.Channels)
	}
	return nil
}

// GetIdentification queries the device identification string.
func (s *Session) GetIdentification() (*Command, error) {
	return s.enqueue(KindGetIdentification, 0, NoValue)
}

// GetStatus requests a full status poll.
func (s *Session) GetStatus() (*Command, error) {
	return s.enqueue(KindGetStatus, 0, NoValue)
}

// SetVoltage sets the voltage of channel.
func (s *Session) SetVoltage(channel int, volts float64) (*Command, error) {
	if err := s.checkChannel(channel); err != nil {
		return nil, err
	}
	if volts < 0 {
		return nil, fmt.Errorf("%w: voltage %v", ErrInvalidArgument, volts)
	}
	return s.enqueue(KindSetVoltage, channel, Float(volts))
}

// GetVoltage reads back the voltage set point of channel.
func (s *Session) GetVoltage(channel int) (*Command, error) {
	if err := s.checkChannel(channel); err != nil {
		return nil, err
	}
	return s.enqueue(KindGetVoltage, channel, NoValue)
}

// SetCurrent sets the current limit of channel.
func (s *Session) SetCurrent(channel int, amps float64) (*Command, error) {
	if err := s.checkChannel(channel); err != nil {
		return nil, err
	}
	if amps < 0 {
		return nil, fmt.Errorf("%w: current %v", ErrInvalidArgument, amps)
	}
	return s.enqueue(KindSetCurrent, channel, Float(amps))
}

// GetCurrent reads back the current limit of channel.
func (s *Session) GetCurrent(channel int) (*Command, error) {
	if err := s.checkChannel(channel); err != nil {
		return nil, err
	}
	return s.enqueue(KindGetCurrent, channel, NoValue)
}

// SetOutput switches the output. Channel 0 addresses the whole device;
// supplies that cannot switch channels separately treat every channel the
// same way.
func (s *Session) SetOutput(channel int, on bool) (*Command, error) {
	if channel != 0 {
		if err := s.checkChannel(channel); err != nil {
			return nil, err
		}
	}
	return s.enqueue(KindSetOutput, channel, Bool(on))
}

func (s *Session) SetOCP(on bool) (*Command, error)    { return s.enqueue(KindSetOCP, 0, Bool(on)) }
func (s *Session) SetOVP(on bool) (*Command, error)    { return s.enqueue(KindSetOVP, 0, Bool(on)) }
func (s *Session) SetOTP(on bool) (*Command, error)    { return s.enqueue(KindSetOTP, 0, Bool(on)) }
func (s *Session) SetBeep(on bool) (*Command, error)   { return s.enqueue(KindSetBeep, 0, Bool(on)) }
func (s *Session) SetLocked(on bool) (*Command, error) { return s.enqueue(KindSetLocked, 0, Bool(on)) }

// SetTracking couples the channels of a multi-channel supply.
func (s *Session) SetTracking(mode TrackingMode) (*Command, error) {
	if mode < TrackingIndependent || mode > TrackingParallel {
		return nil, fmt.Errorf("%w: tracking mode %d", ErrInvalidArgument, mode)
	}
	return s.enqueue(KindSetTracking, 0, Int(int(mode)))
}

// RecallMemory loads the set points stored in memory slot n.
func (s *Session) RecallMemory(n int) (*Command, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: memory slot %d", ErrInvalidArgument, n)
	}
	return s.enqueue(KindRecallMemory, 0, Int(n))
}

// SaveMemory stores the current set points in memory slot n.
func (s *Session) SaveMemory(n int) (*Command, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: memory slot %d", ErrInvalidArgument, n)
	}
	return s.enqueue(KindSaveMemory, 0, Int(n))
}
