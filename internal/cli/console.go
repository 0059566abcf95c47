package cli

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/MrSnakeDoc/tenancy/internal/config"
	"github.com/MrSnakeDoc/tenancy/internal/domain"
	"github.com/MrSnakeDoc/tenancy/internal/fsys"
	"github.com/MrSnakeDoc/tenancy/internal/manager"
)

// console is the state shared by console commands: the catalog read from
// disk and the request context given on the command line.
type console struct {
	fs      *fsys.FS
	catalog *domain.Catalog
	rc      domain.RequestContext
}

func loadConsole(v *viper.Viper) (*console, error) {
	global, err := config.LoadGlobal(v.GetString(keyConfig), v.GetString(keyRoot))
	if err != nil {
		return nil, err
	}
	fs := fsys.NewOS()
	return &console{
		fs:      fs,
		catalog: domain.NewCatalog(global, fs),
		rc:      domain.NewRequestContext(v.GetString(keyHost), v.GetString(keyURI)),
	}, nil
}

// manager resolves the current service; a request context no service
// accepts fails the command.
func (c *console) manager() (*manager.Manager, error) {
	m, err := manager.New(c.catalog, c.rc, c.fs, nil)
	if err != nil {
		return nil, fmt.Errorf("host %q uri %q: %w", c.rc.Host, c.rc.Path, err)
	}
	return m, nil
}

func managerFrom(v *viper.Viper) (*manager.Manager, error) {
	c, err := loadConsole(v)
	if err != nil {
		return nil, err
	}
	return c.manager()
}
