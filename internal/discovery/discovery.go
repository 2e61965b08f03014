// Package discovery locates the local display service through the
// coreProps.json file its engine writes on startup.
package discovery

import (
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"codeberg.org/mutker/hwoled/internal/errors"
	"github.com/spf13/viper"
)

const (
	ErrNotFound       = errors.ErrorCode("discovery_core_props_not_found")
	ErrMalformed      = errors.ErrorCode("discovery_core_props_malformed")
	ErrInvalidAddress = errors.ErrorCode("discovery_invalid_address")
	ErrUnsupportedOS  = errors.ErrorCode("discovery_unsupported_os")
)

const corePropsFile = "coreProps.json"

// Endpoint is where the display service listens.
type Endpoint struct {
	Address          string
	EncryptedAddress string
}

// DefaultPath returns the coreProps.json location for goos.
func DefaultPath(goos string) (string, error) {
	switch goos {
	case "windows":
		base := os.Getenv("PROGRAMDATA")
		if base == "" {
			base = `C:\ProgramData`
		}
		return base + `\SteelSeries\SteelSeries Engine 3\` + corePropsFile, nil
	case "darwin":
		return filepath.Join("/Library/Application Support/SteelSeries Engine 3", corePropsFile), nil
	default:
		return "", errors.New().WithData(ErrUnsupportedOS, goos)
	}
}

// Locate reads coreProps.json from path, or from the platform default when
// path is empty.
func Locate(path string) (Endpoint, error) {
	if path == "" {
		p, err := DefaultPath(runtime.GOOS)
		if err != nil {
			return Endpoint{}, err
		}
		path = p
	}
	return Load(path)
}

func Load(path string) (Endpoint, error) {
	errFactory := errors.New()

	if _, err := os.Stat(path); err != nil {
		return Endpoint{}, errFactory.Wrap(ErrNotFound, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return Endpoint{}, errFactory.Wrap(ErrMalformed, err)
	}

	ep := Endpoint{
		Address:          v.GetString("address"),
		EncryptedAddress: v.GetString("encryptedAddress"),
	}
	if err := ValidateAddress(ep.Address); err != nil {
		return Endpoint{}, err
	}

	return ep, nil
}

// ValidateAddress accepts host:port with a numeric port.
func ValidateAddress(address string) error {
	errFactory := errors.New()

	if address == "" {
		return errFactory.WithMessage(ErrInvalidAddress, "address is empty")
	}

	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return errFactory.Wrap(ErrInvalidAddress, err)
	}
	if host == "" {
		return errFactory.WithData(ErrInvalidAddress, address)
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return errFactory.WithData(ErrInvalidAddress, address)
	}

	return nil
}
