// Package psu talks to programmable bench power supplies.
//
// A Session owns one supply. Its methods (SetVoltage, GetStatus, ...) put
// a Command on a FIFO queue and return at once; a single worker goroutine
// pops commands, writes them to the serial port, collects the reply and
// decodes it with the Codec of the device family. Results are reported to
// a Handler as events:
//
//	sess, err := psu.NewSession(cfg, psu.WithHandler(psu.HandlerFunc(func(e psu.Event) {
//	    switch e := e.(type) {
//	    case psu.StatusReady:
//	        v, _ := e.Status.VoltageActual(1)
//	        fmt.Println("ch1", v)
//	    case psu.RequestFinished:
//	        fmt.Println(e.Command, e.Command.Result.Value, e.Command.Result.Err)
//	    }
//	})))
//	if err != nil {
//	    return err
//	}
//	if err := sess.Connect(); err != nil {
//	    return err
//	}
//	defer sess.Disconnect()
//	sess.SetVoltage(1, 12.5)
//
// Status keeps the latest readings. It is safe to read from any goroutine
// while the worker updates it.
package psu
