// Package serial is the Linux termios transport used to talk to bench
// power supplies.
//
// Ports are opened in raw mode with fixed line parameters; no flow
// control negotiation takes place beyond what the configuration asks for.
//
// # Basic Usage
//
//	port, err := serial.Open("/dev/ttyACM0",
//	    serial.WithBaudRate(9600),
//	    serial.WithParity(serial.ParityNone),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	if _, err := port.Write([]byte("*IDN?")); err != nil {
//	    log.Fatal(err)
//	}
//	if err := port.WaitWritten(time.Second); err != nil {
//	    // serial.ErrWriteTimeout: the output queue did not empty in time
//	}
//
//	buf := make([]byte, 64)
//	n, err := port.ReadTimeout(buf, time.Second)
//
// # Timeouts
//
// ReadTimeout uses poll(2) so callers can pick a different bound for every
// read: a long wait for the first byte of a reply and a short idle wait for
// the rest. WaitWritten samples the kernel output queue (TIOCOUTQ) and
// returns ErrWriteTimeout when it does not drain in time.
//
// # Port Discovery
//
//	ports, err := serial.ListPorts()
//	for _, p := range ports {
//	    info, _ := serial.GetPortInfo(p)
//	    fmt.Printf("%s: %s (VID=%s PID=%s)\n", info.Path, info.Description, info.VendorID, info.ProductID)
//	}
//
// # Default Configuration
//
//   - BaudRate: 9600
//   - DataBits: 8
//   - StopBits: 1
//   - Parity: None
//   - FlowControl: None
//   - ReadTimeout: 100ms
package serial
