package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/loggier/app-corte/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestConnectMongo_BadURI(t *testing.T) {
	os.Setenv("MONGO_URI", "mongodb://bad:uri")
	defer os.Unsetenv("MONGO_URI")
	client, err := ConnectMongo()
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestDatabaseName_Default(t *testing.T) {
	os.Unsetenv("MONGO_DB")
	if got := DatabaseName(); got != "appcorte" {
		t.Errorf("DatabaseName() = %q, want appcorte", got)
	}
	os.Setenv("MONGO_DB", "corte-test")
	defer os.Unsetenv("MONGO_DB")
	if got := DatabaseName(); got != "corte-test" {
		t.Errorf("DatabaseName() = %q, want corte-test", got)
	}
}

func TestMongoVehicleCollection_NilCollection(t *testing.T) {
	coll := &MongoVehicleCollection{Collection: nil}
	ctx := context.Background()

	if _, err := coll.InsertVehicle(ctx, models.Vehicle{}); err == nil {
		t.Error("expected error when collection is nil on insert")
	}
	if _, err := coll.FindVehicles(ctx, nil); err == nil {
		t.Error("expected error when collection is nil on find")
	}
	if _, err := coll.FindVehicleByID(ctx, "abc"); err == nil {
		t.Error("expected error when collection is nil on find by id")
	}
	if err := coll.UpdateVehicle(ctx, "abc", models.VehicleUpdate{}); err == nil {
		t.Error("expected error when collection is nil on update")
	}
	if err := coll.DeleteVehicle(ctx, "abc"); err == nil {
		t.Error("expected error when collection is nil on delete")
	}
}

func TestMongoRefdataCollections_NilCollection(t *testing.T) {
	brands := &MongoBrandCollection{Collection: nil}
	modelsColl := &MongoModelCollection{Collection: nil}
	ctx := context.Background()

	if _, err := brands.FindBrands(ctx); err == nil {
		t.Error("expected error when brand collection is nil")
	}
	if _, err := brands.FindBrandByID(ctx, "abc"); err == nil {
		t.Error("expected error when brand collection is nil on find by id")
	}
	if _, err := modelsColl.FindModelsByBrand(ctx, "abc"); err == nil {
		t.Error("expected error when model collection is nil")
	}
	if _, err := modelsColl.InsertModel(ctx, models.Model{}); err == nil {
		t.Error("expected error when model collection is nil on insert")
	}
}

func TestMongoUserCollection_NilCollection(t *testing.T) {
	coll := &MongoUserCollection{Collection: nil}
	ctx := context.Background()

	if err := coll.InsertUser(ctx, models.User{}); err == nil {
		t.Error("expected error when collection is nil on insert")
	}
	if _, err := coll.FindUserByEmail(ctx, "a@b.co"); err == nil {
		t.Error("expected error when collection is nil on find by email")
	}
	if err := coll.UpdateLastLogin(ctx, "abc"); err == nil {
		t.Error("expected error when collection is nil on last login update")
	}
}

// Integration test (requires running MongoDB)
func TestInsertVehicle_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" || uri == "mongodb://bad:uri" {
		t.Skip("MONGO_URI not set or invalid, skipping integration test")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
		return
	}
	defer client.Disconnect(ctx)
	coll := &MongoVehicleCollection{Collection: client.Database(DatabaseName()).Collection(VehiclesCollection)}
	id, err := coll.InsertVehicle(ctx, models.Vehicle{Brand: "Toyota", Model: "Corolla", Year: 2022})
	if err != nil {
		t.Errorf("expected insert to succeed, got error: %v", err)
	}
	if id == "" {
		t.Error("expected a generated id")
	}
}
