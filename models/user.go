package models

import "time"

// User — проекция пользователя из внешнего слоя аутентификации.
// Ядро хранит только то, что нужно для отображения участников.
type User struct {
	ID        int       `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
