package user

import (
	"github.com/VitaminP8/blog/models"
)

type UserStorage interface {
	RegisterUser(username, email, password string) (*models.User, error)
	VerifyCredentials(username, password string) (*models.User, error)
	FindByUUID(uuid string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
}
