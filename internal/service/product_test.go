package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/model"
)

func seedProduct(t *testing.T, repo *mockProductRepo, price string) *model.Product {
	t.Helper()
	p := &model.Product{
		Name: "Tent", Price: decimal.RequireFromString(price),
		Image: "/uploads/tent.jpg", CountInStock: 10,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestProductService_Create(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)
	adminID := uuid.New()

	resp, err := svc.Create(context.Background(), adminID, dto.CreateProductRequest{
		Name: "Lamp", Description: "Desk lamp", Price: decimal.NewFromInt(25),
		Category: "Home", Brand: "Acme", CountInStock: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, adminID, resp.UserID)
	assert.Equal(t, model.DefaultProductImage, resp.Image)
	assert.Empty(t, resp.Reviews)

	_, err = svc.Create(context.Background(), adminID, dto.CreateProductRequest{
		Name: "Bad", Price: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(context.Background(), adminID, dto.CreateProductRequest{
		Name: "Bad", Price: decimal.RequireFromString("19.999"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProductService_GetByID(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)
	p := seedProduct(t, repo, "12.50")

	resp, err := svc.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tent", resp.Name)
	assert.True(t, decimal.RequireFromString("12.50").Equal(resp.Price))

	_, err = svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_UpdatePartial(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)
	p := seedProduct(t, repo, "10")

	name := "Big Tent"
	stock := 0
	resp, err := svc.Update(context.Background(), p.ID, dto.UpdateProductRequest{Name: &name, CountInStock: &stock})
	require.NoError(t, err)
	assert.Equal(t, "Big Tent", resp.Name)
	assert.Equal(t, 0, resp.CountInStock)
	assert.True(t, decimal.NewFromInt(10).Equal(resp.Price))

	_, err = svc.Update(context.Background(), uuid.New(), dto.UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_Delete(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)
	p := seedProduct(t, repo, "10")

	require.NoError(t, svc.Delete(context.Background(), p.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), p.ID), ErrProductNotFound)
}

func TestProductService_List(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)
	seedProduct(t, repo, "1")
	seedProduct(t, repo, "2")

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Products, 2)
}

func TestProductService_AddReview_MeanRating(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)
	p := seedProduct(t, repo, "10")

	for i, rating := range []int{4, 5, 3} {
		user := &model.User{ID: uuid.New(), Name: "reviewer"}
		got, err := svc.AddReview(context.Background(), p.ID, user, dto.CreateReviewRequest{Rating: rating, Comment: "ok"})
		require.NoError(t, err)
		assert.Equal(t, i+1, got.NumReviews)
	}

	stored, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.NumReviews)
	assert.InDelta(t, 4.0, stored.Rating, 1e-9)
}

func TestProductService_AddReview_Duplicate(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)
	p := seedProduct(t, repo, "10")
	user := &model.User{ID: uuid.New(), Name: "once"}

	_, err := svc.AddReview(context.Background(), p.ID, user, dto.CreateReviewRequest{Rating: 5})
	require.NoError(t, err)

	_, err = svc.AddReview(context.Background(), p.ID, user, dto.CreateReviewRequest{Rating: 1})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	stored, _ := repo.GetByID(context.Background(), p.ID)
	assert.Equal(t, 1, stored.NumReviews)
	assert.InDelta(t, 5.0, stored.Rating, 1e-9)
}

func TestProductService_AddReview_Validation(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)
	p := seedProduct(t, repo, "10")
	user := &model.User{ID: uuid.New()}

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.AddReview(context.Background(), p.ID, user, dto.CreateReviewRequest{Rating: rating})
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	_, err := svc.AddReview(context.Background(), uuid.New(), user, dto.CreateReviewRequest{Rating: 3})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_AddReview_RetriesOnVersionConflict(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)
	p := seedProduct(t, repo, "10")

	repo.conflicts = 2
	_, err := svc.AddReview(context.Background(), p.ID, &model.User{ID: uuid.New()}, dto.CreateReviewRequest{Rating: 4})
	require.NoError(t, err)

	repo.conflicts = maxReviewRetries
	_, err = svc.AddReview(context.Background(), p.ID, &model.User{ID: uuid.New()}, dto.CreateReviewRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
}

func TestProductService_DeleteReview(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)
	p := seedProduct(t, repo, "10")

	got, err := svc.AddReview(context.Background(), p.ID, &model.User{ID: uuid.New()}, dto.CreateReviewRequest{Rating: 2})
	require.NoError(t, err)
	reviewID := got.Reviews[0].ID

	got, err = svc.DeleteReview(context.Background(), p.ID, reviewID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NumReviews)
	assert.Zero(t, got.Rating)

	_, err = svc.DeleteReview(context.Background(), p.ID, reviewID)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}
