package models

import "time"

// Role - роль пользователя.
type Role string

const (
	RoleOperator Role = "operator" // Создает и удаляет операции
	RoleInvestor Role = "investor" // Делает предложения
)

// User представляет модель пользователя.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRequest представляет структуру запроса для регистрации пользователя.
type UserRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=64"`
	Role     Role   `json:"role" validate:"required,oneof=operator investor"`
}

// Validate проверяет запрос на регистрацию пользователя.
func (r UserRequest) Validate() error {
	return validateStruct(r)
}
