package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// GoogleClient is the OAuth client file downloaded from the Google Cloud
// console. Desktop clients arrive under "installed", web clients under "web".
type GoogleClient struct {
	Installed *GoogleClientSection `json:"installed,omitempty" validate:"required_without=Web"`
	Web       *GoogleClientSection `json:"web,omitempty" validate:"required_without=Installed"`
}

// GoogleClientSection holds the fields the portal's OAuth flow reads
type GoogleClientSection struct {
	ClientID     string   `json:"client_id" validate:"required"`
	ClientSecret string   `json:"client_secret" validate:"required"`
	ProjectID    string   `json:"project_id,omitempty"`
	AuthURI      string   `json:"auth_uri" validate:"required,url"`
	TokenURI     string   `json:"token_uri" validate:"required,url"`
	RedirectURIs []string `json:"redirect_uris" validate:"required,min=1,dive,uri"`
}

// Section returns whichever client section the file carries
func (g *GoogleClient) Section() *GoogleClientSection {
	if g.Installed != nil {
		return g.Installed
	}
	return g.Web
}

// ErrNoGoogleClient is returned when a Google feature is enabled but no client file exists
var ErrNoGoogleClient = errors.New("google oauth client file not found")

// GoogleClientFileName is the client file looked up for env
func GoogleClientFileName(env string) string {
	if env == "" {
		return "portal_oauth.json"
	}
	return "portal_oauth." + env + ".json"
}

// LoadGoogleClient loads portal_oauth.<env>.json from the working or home directory
func LoadGoogleClient(env string) (*GoogleClient, error) {
	name := GoogleClientFileName(env)
	path, err := locateFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (sheets sync, roster import and decision e-mail need it)", ErrNoGoogleClient, name)
	}
	if err != nil {
		return nil, err
	}
	return LoadGoogleClientFromPath(path)
}

// LoadGoogleClientFromPath reads and validates a client file
func LoadGoogleClientFromPath(path string) (*GoogleClient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read google client file: %w", err)
	}

	var client GoogleClient
	if err := json.Unmarshal(data, &client); err != nil {
		return nil, fmt.Errorf("failed to parse google client file %s: %w", path, err)
	}
	if err := ValidateGoogleClient(&client); err != nil {
		return nil, err
	}
	return &client, nil
}

func ValidateGoogleClient(client *GoogleClient) error {
	if err := validate.Struct(client); err != nil {
		return fmt.Errorf("google client validation failed: %w", err)
	}
	return nil
}
