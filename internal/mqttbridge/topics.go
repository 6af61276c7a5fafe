package mqttbridge

import "strings"

// Topics builds the topic tree of one supply:
//
//	<prefix>/<device>/status         retained JSON status snapshot
//	<prefix>/<device>/state          retained session state
//	<prefix>/<device>/result         command results
//	<prefix>/<device>/set/<action>[/<channel>]  payload is the value
type Topics struct {
	Prefix string
	Device string
}

func (t Topics) base() string {
	return strings.Trim(t.Prefix, "/") + "/" + t.Device
}

func (t Topics) Status() string { return t.base() + "/status" }
func (t Topics) State() string  { return t.base() + "/state" }
func (t Topics) Result() string { return t.base() + "/result" }

// SetFilter subscribes to every set topic.
func (t Topics) SetFilter() string { return t.base() + "/set/#" }

// SetFields returns the request fields encoded in a set topic, or false
// when topic is not below the set tree.
func (t Topics) SetFields(topic string) ([]string, bool) {
	rest, ok := strings.CutPrefix(topic, t.base()+"/set/")
	if !ok || rest == "" {
		return nil, false
	}
	return strings.Split(rest, "/"), true
}
