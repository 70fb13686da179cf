package access

import "github.com/VitaminP8/blog/internal/apperr"

// Owned - сущность, у которой есть автор (пост, комментарий)
type Owned interface {
	OwnerID() uint
}

// RequireOwner возвращает apperr.ErrForbidden, если enforce и запрашивающий не владелец.
// Пути чтения (детали поста, лайки, комментарии) вызывают с enforce=false.
func RequireOwner(entity Owned, requesterID uint, enforce bool) error {
	if enforce && entity.OwnerID() != requesterID {
		return apperr.ErrForbidden
	}
	return nil
}
