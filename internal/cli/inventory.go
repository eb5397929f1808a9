package cli

import (
	"fmt"
	"strings"

	"github.com/sshcollectorpro/sysvers/internal/database"
	"github.com/sshcollectorpro/sysvers/internal/inventory"
)

func (a *app) openStore() (*inventory.Store, func(), error) {
	db, err := database.OpenSQLite(a.cfg.Inventory.SQLite)
	if err != nil {
		return nil, nil, err
	}
	return inventory.NewStore(db), func() { _ = database.Close(db) }, nil
}

// source 按名称选择清单来源；空名称使用配置的默认来源
func (a *app) source(name string) (inventory.Source, func(), error) {
	if name == "" {
		name = a.cfg.Inventory.Source
	}
	switch strings.ToLower(name) {
	case "infrahub":
		src, err := inventory.NewInfrahub(a.cfg.Inventory.Infrahub)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	case "sqlite":
		return a.openStore()
	default:
		return nil, nil, fmt.Errorf("unknown inventory source %q (use infrahub|sqlite)", name)
	}
}
