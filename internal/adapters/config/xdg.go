package config

import "github.com/adrg/xdg"

// searchUserConfig returns the first kiln/config.yaml found in the XDG config directories.
func searchUserConfig() (string, error) {
	return xdg.SearchConfigFile(UserConfigFile)
}
