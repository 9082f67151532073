package cli

import (
	"nsg-cli/internal/config"
	"nsg-cli/internal/nsg"
)

func newClientFromConfig() (*nsg.Client, error) {
	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, err
	}
	return nsg.NewClient(creds, nsg.Options{BaseURL: config.BaseURL()}), nil
}
