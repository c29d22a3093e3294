package category_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbook "github.com/xiebiao/library/internal/application/book"
	appcategory "github.com/xiebiao/library/internal/application/category"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/category"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql/mysqltest"
)

func TestCategoryUseCase(t *testing.T) {
	db := mysqltest.New(t)
	ctx := context.Background()
	books := mysql.NewBookRepository(db)
	uc := appcategory.NewCategoryUseCase(mysql.NewCategoryRepository(db), books, appbook.NewListBooksUseCase(books))

	history, err := uc.Create(ctx, "历史")
	require.NoError(t, err)
	fiction, err := uc.Create(ctx, "小说")
	require.NoError(t, err)

	_, err = uc.Create(ctx, "历史")
	assert.ErrorIs(t, err, category.ErrCategoryDuplicate)
	_, err = uc.Create(ctx, "  ")
	assert.ErrorIs(t, err, category.ErrInvalidName)

	list, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	renamed, err := uc.Rename(ctx, fiction.ID, "科幻")
	require.NoError(t, err)
	assert.Equal(t, "科幻", renamed.Name)

	b, err := book.NewBook("三体", "9787536692930", 2300, true, renamed.CreatedAt, 1, "", "", []uint{renamed.ID})
	require.NoError(t, err)
	require.NoError(t, books.Create(ctx, b))

	page, err := uc.Books(ctx, renamed.ID, appbook.ListBooksRequest{})
	require.NoError(t, err)
	require.Len(t, page.List, 1)
	assert.Equal(t, "三体", page.List[0].Name)

	_, err = uc.Books(ctx, 404, appbook.ListBooksRequest{})
	assert.ErrorIs(t, err, category.ErrCategoryNotFound)

	assert.ErrorIs(t, uc.Delete(ctx, renamed.ID), category.ErrCategoryInUse)
	require.NoError(t, uc.Delete(ctx, history.ID))
	_, err = uc.Get(ctx, history.ID)
	assert.ErrorIs(t, err, category.ErrCategoryNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, history.ID), category.ErrCategoryNotFound)
}
