package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun model for the users table
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email          string    `bun:"email,notnull,unique"`
	HashedPassword string    `bun:"hashed_password,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
	IsActive       bool      `bun:"is_active,notnull,default:true"`
	IsSuperuser    bool      `bun:"is_superuser,notnull,default:false"`
}
