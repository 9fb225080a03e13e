package notifier

import "fmt"

// StdoutNotifier prints messages to standard output. It is the fallback
// channel when no webhook URL is configured and the target of
// -test-notification dry runs.
type StdoutNotifier struct {
	name string
}

func NewStdoutNotifier(name string) *StdoutNotifier {
	return &StdoutNotifier{name: name}
}

func (sn *StdoutNotifier) Name() string {
	return sn.name
}

func (sn *StdoutNotifier) Send(text string) error {
	fmt.Println(text)
	return nil
}
