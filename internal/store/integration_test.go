//go:build integration
// +build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/models"
	"github.com/agrilink/agrilink/internal/store"
	"github.com/agrilink/agrilink/pkg/qb"
)

// setupStore starts a PostgreSQL container, runs the migrations and returns
// a ready Store.
func setupStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := qb.Connect(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = store.Migrate(ctx, pool)
	require.NoError(t, err)

	return store.New(pool)
}

func createUser(t *testing.T, st *store.Store, email string, role models.Role) *models.User {
	t.Helper()
	u, err := st.Users.Create(context.Background(), models.User{
		Name:         "Test " + string(role),
		Email:        email,
		PasswordHash: "x",
		Role:         role,
	})
	require.NoError(t, err)
	return u
}

func TestUserLifecycle(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	u := createUser(t, st, "farmer@example.com", models.RoleFarmer)
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	// Duplicate email conflicts.
	_, err := st.Users.Create(ctx, models.User{
		Name: "Dup", Email: "farmer@example.com", PasswordHash: "x", Role: models.RoleFarmer,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))

	loaded, err := st.Users.GetByEmail(ctx, "farmer@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, loaded.ID)

	updated, err := st.Users.UpdateProfile(ctx, u.ID, map[string]any{"bio": "I grow rice"})
	require.NoError(t, err)
	assert.Equal(t, "I grow rice", updated.Bio)
}

func TestPasswordResetFlow(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	createUser(t, st, "reset@example.com", models.RoleCustomer)
	require.NoError(t, st.Users.CreateReset(ctx, models.PasswordReset{
		Email:     "reset@example.com",
		OTPCode:   "123456",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}))

	// Wrong code fails, right code works exactly once.
	err := st.Users.ConsumeReset(ctx, "reset@example.com", "000000")
	assert.True(t, apperr.IsValidation(err))
	require.NoError(t, st.Users.ConsumeReset(ctx, "reset@example.com", "123456"))
	err = st.Users.ConsumeReset(ctx, "reset@example.com", "123456")
	assert.True(t, apperr.IsValidation(err))
}

func setupProduct(t *testing.T, st *store.Store, farmerID int64, qty int) *models.Product {
	t.Helper()
	ctx := context.Background()

	cat, err := st.Categories.Create(ctx, models.Category{Name: "Vegetables"})
	if err != nil {
		cats, listErr := st.Categories.List(ctx)
		require.NoError(t, listErr)
		cat = &cats[0]
	}

	p, err := st.Products.Create(ctx, models.Product{
		FarmerID:    farmerID,
		CategoryID:  cat.ID,
		Name:        "Tomatoes",
		Price:       2.50,
		Quantity:    qty,
		Unit:        "kg",
		IsAvailable: true,
	})
	require.NoError(t, err)
	return p
}

func TestOrderStockFlow(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	farmer := createUser(t, st, "f@example.com", models.RoleFarmer)
	customer := createUser(t, st, "c@example.com", models.RoleCustomer)
	product := setupProduct(t, st, farmer.ID, 10)

	order, err := st.Orders.Create(ctx, customer.ID,
		[]store.OrderItemInput{{ProductID: product.ID, Quantity: 4}}, "12 Farm Lane", "555-0001")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.InDelta(t, 10.0, order.Total, 0.001)
	require.Len(t, order.Items, 1)
	assert.InDelta(t, 2.50, order.Items[0].UnitPrice, 0.001)

	p, err := st.Products.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, p.Quantity)

	// Ordering more than remains fails and changes nothing.
	_, err = st.Orders.Create(ctx, customer.ID,
		[]store.OrderItemInput{{ProductID: product.ID, Quantity: 7}}, "12 Farm Lane", "")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	p, err = st.Products.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, p.Quantity)

	// Cancel restores stock.
	cancelled, err := st.Orders.UpdateStatus(ctx, order.ID, models.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	p, err = st.Products.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Quantity)

	// A cancelled order is final.
	_, err = st.Orders.UpdateStatus(ctx, order.ID, models.OrderProcessing)
	assert.True(t, apperr.IsValidation(err))
}

func TestTipLikeAndSaveToggles(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	expert := createUser(t, st, "e@example.com", models.RoleExpert)
	reader := createUser(t, st, "r@example.com", models.RoleFarmer)

	cat, err := st.Tips.CreateCategory(ctx, models.TipCategory{Name: "Irrigation"})
	require.NoError(t, err)
	tip, err := st.Tips.Create(ctx, models.Tip{
		AuthorID: expert.ID, CategoryID: cat.ID, Title: "Drip lines", Content: "Use them.",
	})
	require.NoError(t, err)

	liked, likes, err := st.Tips.ToggleLike(ctx, tip.ID, reader.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, likes)

	liked, likes, err = st.Tips.ToggleLike(ctx, tip.ID, reader.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, likes)

	saved, err := st.Tips.ToggleSave(ctx, tip.ID, reader.ID)
	require.NoError(t, err)
	assert.True(t, saved)
	savedTips, err := st.Tips.ListSaved(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, savedTips, 1)
	assert.Equal(t, tip.ID, savedTips[0].ID)

	// Views bump on read.
	viewed, err := st.Tips.View(ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.ViewsCount)
}

func TestStoryImagesKeepOrder(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	author := createUser(t, st, "gallery@example.com", models.RoleFarmer)
	story, err := st.Stories.Create(ctx, models.SuccessStory{
		AuthorID: author.ID, Title: "Greenhouse build", Content: "From foundation to first crop.",
	}, []string{"uploads/a.jpg", "uploads/b.jpg", "uploads/c.jpg"})
	require.NoError(t, err)
	require.Len(t, story.Images, 3)

	// The first image has position zero, yet the later positions must still
	// be stored, not defaulted.
	loaded, err := st.Stories.Get(ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Images, 3)
	for i, wantPath := range []string{"uploads/a.jpg", "uploads/b.jpg", "uploads/c.jpg"} {
		assert.Equal(t, wantPath, loaded.Images[i].ImagePath)
		assert.Equal(t, i, loaded.Images[i].Position)
	}
}

func TestStoryCommentsStayOneLevelDeep(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	author := createUser(t, st, "a@example.com", models.RoleFarmer)
	story, err := st.Stories.Create(ctx, models.SuccessStory{
		AuthorID: author.ID, Title: "Big harvest", Content: "Twice last year's yield.",
	}, nil)
	require.NoError(t, err)

	top, err := st.Stories.AddComment(ctx, story.ID, author.ID, "congrats", nil)
	require.NoError(t, err)
	reply, err := st.Stories.AddComment(ctx, story.ID, author.ID, "thanks", &top.ID)
	require.NoError(t, err)

	// Replying to the reply re-attaches to the top-level comment.
	nested, err := st.Stories.AddComment(ctx, story.ID, author.ID, "deep", &reply.ID)
	require.NoError(t, err)
	require.NotNil(t, nested.ParentID)
	assert.Equal(t, top.ID, *nested.ParentID)

	loaded, err := st.Stories.Get(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.CommentsCount)

	comments, err := st.Stories.ListComments(ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Len(t, comments[0].Replies, 2)

	// Deleting the top-level comment removes its replies from the count.
	require.NoError(t, st.Stories.DeleteComment(ctx, top.ID))
	loaded, err = st.Stories.Get(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.CommentsCount)
}

func TestMessageRepliesTrackDepth(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	user := createUser(t, st, "m@example.com", models.RoleCustomer)
	msg, err := st.Messages.Create(ctx, models.CommunityMessage{
		UserID: user.ID, Content: "anyone tried cover crops?",
	}, nil)
	require.NoError(t, err)

	first, err := st.Messages.AddReply(ctx, msg.ID, user.ID, "yes, clover", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Depth)

	second, err := st.Messages.AddReply(ctx, msg.ID, user.ID, "how did it go?", &first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Depth)

	loaded, err := st.Messages.Get(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.RepliesCount)

	// Deleting the parent removes the whole subtree from the count.
	require.NoError(t, st.Messages.DeleteReply(ctx, first.ID))
	loaded, err = st.Messages.Get(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.RepliesCount)
}

func TestMessageSincePolling(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	user := createUser(t, st, "p@example.com", models.RoleCustomer)
	_, err := st.Messages.Create(ctx, models.CommunityMessage{UserID: user.ID, Content: "old"}, nil)
	require.NoError(t, err)

	mark := time.Now()
	time.Sleep(10 * time.Millisecond)
	fresh, err := st.Messages.Create(ctx, models.CommunityMessage{UserID: user.ID, Content: "new"}, nil)
	require.NoError(t, err)

	got, err := st.Messages.List(ctx, store.MessageFilter{Since: &mark})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, fresh.ID, got[0].ID)
}

func TestConsultationTransitions(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	farmer := createUser(t, st, "cf@example.com", models.RoleFarmer)
	expert := createUser(t, st, "ce@example.com", models.RoleExpert)

	c, err := st.Consultations.Create(ctx, models.Consultation{
		FarmerID: farmer.ID, ExpertID: expert.ID, Topic: "soil pH",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ConsultationPending, c.Status)

	accepted, err := st.Consultations.UpdateStatus(ctx, c.ID, models.ConsultationAccepted, "bring a sample")
	require.NoError(t, err)
	assert.Equal(t, "bring a sample", accepted.ExpertNotes)

	// Declining after acceptance is not a legal move.
	_, err = st.Consultations.UpdateStatus(ctx, c.ID, models.ConsultationDeclined, "")
	assert.True(t, apperr.IsValidation(err))

	done, err := st.Consultations.UpdateStatus(ctx, c.ID, models.ConsultationCompleted, "pH was fine")
	require.NoError(t, err)
	assert.Equal(t, models.ConsultationCompleted, done.Status)
}
