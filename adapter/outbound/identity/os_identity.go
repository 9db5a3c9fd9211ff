package identity

import (
	"fmt"
	"os/user"

	"github.com/mitchellh/go-homedir"

	"github.com/ajkula/GoAutoSync/domain/model"
	"github.com/ajkula/GoAutoSync/domain/port/outbound"
)

type osIdentity struct {
	lookup  func() (*user.User, error)
	homeDir func() (string, error)
}

// NewOSIdentity resolves the process owner through os/user, falling back
// to go-homedir when the user database has no home directory
func NewOSIdentity() outbound.IdentityResolver {
	return &osIdentity{
		lookup:  user.Current,
		homeDir: homedir.Dir,
	}
}

func (o *osIdentity) Current() (model.Identity, error) {
	u, err := o.lookup()
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: user lookup: %v", model.ErrEnvironmentUnavailable, err)
	}

	home := u.HomeDir
	if home == "" {
		home, err = o.homeDir()
		if err != nil {
			return model.Identity{}, fmt.Errorf("%w: home directory: %v", model.ErrEnvironmentUnavailable, err)
		}
	}

	return model.Identity{Name: u.Username, HomeDir: home}, nil
}
