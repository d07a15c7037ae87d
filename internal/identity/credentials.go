package identity

import (
	"encoding/json"
	"fmt"
	"os"
)

type serviceAccount struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
}

// ProjectIDFromCredentials reads the project id out of a service-account key file.
func ProjectIDFromCredentials(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("identity: read credentials: %w", err)
	}
	var account serviceAccount
	if err := json.Unmarshal(raw, &account); err != nil {
		return "", fmt.Errorf("identity: parse credentials: %w", err)
	}
	if account.ProjectID == "" {
		return "", fmt.Errorf("identity: credentials file %s has no project_id", path)
	}
	return account.ProjectID, nil
}
