package repository

import "github.com/sifan077/PowerRead/internal/app/model"

// Models lists every table the application owns, in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.Tag{},
		&model.Group{},
		&model.GroupMembership{},
		&model.Entry{},
		&model.EntryAudit{},
	}
}
