package reviews

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/hperdana/go-commerce/internal/apperr"
)

func TestMapDuplicateReview(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "reviews_user_product_key"}
	assert.True(t, apperr.Is(mapDuplicateReview(dup), apperr.CodeReviewExists))

	other := errors.New("connection reset")
	assert.Equal(t, other, mapDuplicateReview(other))

	fk := &pgconn.PgError{Code: "23503"}
	assert.Equal(t, error(fk), mapDuplicateReview(fk))

	assert.NoError(t, mapDuplicateReview(nil))
}
