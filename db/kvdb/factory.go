package kvdb

import "fmt"

// ClientFactory constructs a Client from Conf.
// Implementations register themselves from their package init.
type ClientFactory func(conf *Conf) (Client, error)

var registry = map[string]ClientFactory{}

func RegisterFactory(dbType string, factory ClientFactory) {
	registry[dbType] = factory
}

func New(conf *Conf) (Client, error) {
	factory, ok := registry[conf.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported kv database type: %q", conf.Type)
	}
	return factory(conf)
}
