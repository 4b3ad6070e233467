package log

// Nop is a Logger that discards everything. Useful for tests and for
// headless core instances that have no interest in diagnostic output.
type Nop struct{}

func (Nop) Debugf(string, ...interface{}) {}
func (Nop) Infof(string, ...interface{})  {}
func (Nop) Errorf(string, ...interface{}) {}

var _ Logger = Nop{}
