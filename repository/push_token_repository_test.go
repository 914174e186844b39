package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"push-service/models"
	"push-service/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestUpsert_InsertsOnConflictUpdate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewPushTokenRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "push_tokens"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Upsert(context.Background(), &models.PushToken{
		Address:  "bc1qowner",
		Platform: "ios",
		Token:    "device-token-1",
	})
	assert.NoError(t, err)
}

func TestFindByOwner_ReturnsAllPlatforms(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewPushTokenRepository(gormDB)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"address", "platform", "token", "created_at", "updated_at"}).
		AddRow("bc1qowner", "ios", "ios-token", now, now).
		AddRow("bc1qowner", "android", "android-token", now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_tokens"`)).
		WithArgs("bc1qowner").
		WillReturnRows(rows)

	tokens, err := repo.FindByOwner(context.Background(), "bc1qowner")
	assert.NoError(t, err)
	assert.Len(t, tokens, 2)
	assert.Equal(t, "ios-token", tokens[0].Token)
}

func TestFindByOwnerAndPlatform_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewPushTokenRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_tokens"`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	token, err := repo.FindByOwnerAndPlatform(context.Background(), "bc1qowner", "android")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Nil(t, token)
}
