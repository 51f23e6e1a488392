package application

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/foodgram/internal/domain/entity"
	repo "github.com/oksasatya/foodgram/internal/domain/repository"
	"github.com/oksasatya/foodgram/pkg/shoppinglist"
)

// RelationService toggles favorites and cart entries and exports the cart as a shopping list.
type RelationService struct {
	Recipes   repo.RecipeRepository
	Relations repo.RelationRepository
	Logger    *logrus.Logger

	NormalizeUnits bool
	ListTitle      string
	PDFFontPath    string
}

// Download is a rendered shopping list attachment.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Add puts recipeID in the user's kind set and returns the recipe.
func (s *RelationService) Add(ctx context.Context, kind repo.RelationKind, userID, recipeID string) (*entity.Recipe, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	rec, err := s.Recipes.GetByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	added, err := s.Relations.Add(ctx, kind, userID, rec.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !added {
		return nil, ErrAlreadyAdded
	}
	return rec, nil
}

// Remove deletes the row; it fails with ErrNotPresent when there is none.
func (s *RelationService) Remove(ctx context.Context, kind repo.RelationKind, userID, recipeID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	removed, err := s.Relations.Remove(ctx, kind, userID, recipeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotPresent
		}
		return err
	}
	if !removed {
		if _, err := s.Recipes.GetByID(ctx, recipeID); errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return ErrNotPresent
	}
	return nil
}

// ShoppingList aggregates every ingredient row of the recipes in the user's cart.
func (s *RelationService) ShoppingList(ctx context.Context, userID string) ([]shoppinglist.Item, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	lines, err := s.Relations.CartLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	return shoppinglist.Aggregate(lines), nil
}

func textDownload(lines []string) *Download {
	return &Download{
		Filename:    "shopping_list.txt",
		ContentType: "text/plain; charset=utf-8",
		Body:        shoppinglist.RenderText(lines),
	}
}

// DownloadShoppingList renders the list as "txt" (default) or "pdf".
func (s *RelationService) DownloadShoppingList(ctx context.Context, userID, format string) (*Download, error) {
	if format == "" {
		format = "txt"
	}
	if format != "txt" && format != "pdf" {
		return nil, invalid("format", "must be one of: txt, pdf")
	}

	items, err := s.ShoppingList(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines := shoppinglist.Lines(items, s.NormalizeUnits)

	if format == "txt" {
		return textDownload(lines), nil
	}

	var buf bytes.Buffer
	err = shoppinglist.RenderPDF(&buf, lines, shoppinglist.PDFOptions{
		Title:    s.ListTitle,
		FontPath: s.PDFFontPath,
		Now:      time.Now(),
	})
	if errors.Is(err, shoppinglist.ErrFontRequired) {
		if s.Logger != nil {
			s.Logger.WithField("user_id", userID).Warn("shopping list needs PDF_FONT_PATH for pdf; sending txt")
		}
		return textDownload(lines), nil
	}
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Error("render shopping list pdf failed")
		}
		return nil, err
	}
	return &Download{Filename: "shopping_list.pdf", ContentType: "application/pdf", Body: buf.Bytes()}, nil
}
