package model

// App is a beta app owned by a developer. This service only reads apps.
type App struct {
	AppID          string `db:"app_id" json:"appId"`
	DeveloperEmail string `db:"developer_email" json:"developerEmail"`
	Name           string `db:"name" json:"name"`
}
