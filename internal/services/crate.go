package services

import (
	"github.com/veyronhq/reqforge/internal/services/auth"
	"github.com/veyronhq/reqforge/internal/services/configservice"
	"github.com/veyronhq/reqforge/internal/services/notifications"
	"github.com/veyronhq/reqforge/internal/services/sqlite"
)

type Crate struct {
	Config              *configservice.Service
	Sqlite              sqlite.Service
	AuthService         auth.Authmen
	NotificationService *notifications.Service
}
