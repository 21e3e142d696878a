package models

import "time"

type PermissionPolicy string

const (
	PermissionOwner  PermissionPolicy = "OWNER"
	PermissionViewer PermissionPolicy = "VIEWER"
)

// ArtifactInformation identifies the service an asset originates from.
type ArtifactInformation struct {
	GroupID    string `json:"groupId,omitempty"`
	ArtifactID string `json:"artifactId,omitempty"`
	Version    string `json:"version,omitempty"`
}

type AssetRecord struct {
	ID                  string               `json:"id"`
	ExternalID          string               `json:"externalId"`
	Type                string               `json:"type"`
	PermissionPolicy    PermissionPolicy     `json:"permissionPolicy"`
	ArtifactInformation *ArtifactInformation `json:"artifactInformation,omitempty"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
}

type AssetRequest struct {
	ExternalID          string               `json:"externalId"`
	Type                string               `json:"type"`
	PermissionPolicy    PermissionPolicy     `json:"permissionPolicy"`
	ArtifactInformation *ArtifactInformation `json:"artifactInformation,omitempty"`
}

// OwnershipQuery selects the asset records of one digital user.
type OwnershipQuery struct {
	DigitalUserID string
	ExternalIDs   []string
	GroupID       string
	ArtifactID    string
	Type          string
	CreatedAt     *Date
	From          *Date
	To            *Date
}
