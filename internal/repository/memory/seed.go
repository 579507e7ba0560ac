package memory

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/iliyamo/event-attendance/internal/model"
)

// Seed loads users and events from a YAML fixture:
//
//	users:
//	  - {id: host, display_name: Host}
//	events:
//	  - {id: e1, owner_id: host, title: Picnic, capacity: 2}
//
// Events and users are owned by other components, so the memory driver has
// no other way to learn about them.
func (db *DB) Seed(path string) error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	var fixture struct {
		Users  []model.User  `json:"users"`
		Events []model.Event `json:"events"`
	}
	if err := k.UnmarshalWithConf("", &fixture, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	for _, u := range fixture.Users {
		if u.ID == "" {
			return fmt.Errorf("decode %s: user without id", path)
		}
		db.PutUser(u)
	}
	for _, ev := range fixture.Events {
		if ev.ID == "" || ev.OwnerID == "" {
			return fmt.Errorf("decode %s: event needs id and owner_id", path)
		}
		db.PutEvent(ev)
	}
	return nil
}
