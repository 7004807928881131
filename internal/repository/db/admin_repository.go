package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AdminRepository runs commands against the admin database.
type AdminRepository struct {
	database *mongo.Database
}

func NewAdminRepository(client *mongo.Client) AdminRepository {
	return AdminRepository{database: client.Database("admin")}
}

// RunAdminCommand runs cmd and decodes the reply. Server failures surface as
// mongo.CommandError so callers can inspect the code name.
func (repo *AdminRepository) RunAdminCommand(ctx context.Context, cmd bson.D) (bson.M, error) {
	var response bson.M
	if err := repo.database.RunCommand(ctx, cmd).Decode(&response); err != nil {
		return nil, err
	}
	return response, nil
}
