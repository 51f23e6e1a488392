package router

import (
	"context"

	"github.com/oksasatya/foodgram/internal/application"
	"github.com/oksasatya/foodgram/internal/container"
	pginfra "github.com/oksasatya/foodgram/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/foodgram/internal/interface/http"
	"github.com/oksasatya/foodgram/internal/router/modules"
	"github.com/oksasatya/foodgram/pkg/helpers"
)

// Deps groups the services shared by the HTTP modules.
type Deps struct {
	Users     *application.UserService
	Catalog   *application.CatalogService
	Recipes   *application.RecipeService
	Relations *application.RelationService
	Follows   *application.FollowService
	Notifier  *application.Notifier
}

func buildDeps() Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	users := pginfra.NewUserRepository(pool)
	tags := pginfra.NewTagRepository(pool)
	ingredients := pginfra.NewIngredientRepository(pool)
	recipes := pginfra.NewRecipeRepository(pool)
	relations := pginfra.NewRelationRepository(pool)
	follows := pginfra.NewFollowRepository(pool)

	notifier := application.NewNotifier(container.GetPublisher(), cfg, logger)

	return Deps{
		Users: application.NewUserService(
			users,
			follows,
			container.GetJWT(),
			container.GetRedis(),
			logger,
			container.GetES(),
			cfg.ESUsersIndex,
			notifier,
		),
		Catalog: application.NewCatalogService(tags, ingredients, users, container.GetRedis(), cfg.CatalogTTL, logger),
		Recipes: &application.RecipeService{
			Recipes:        recipes,
			Users:          users,
			Tags:           tags,
			Ingredients:    ingredients,
			Relations:      relations,
			Follows:        follows,
			Images:         container.GetImageStore(),
			ImageMaxSide:   cfg.ImageMaxSide,
			ImageMaxPixels: cfg.ImageMaxPixels,
			Notifier:       notifier,
			Logger:         logger,
		},
		Relations: &application.RelationService{
			Recipes:        recipes,
			Relations:      relations,
			Logger:         logger,
			NormalizeUnits: cfg.ShoppingListNormalize,
			ListTitle:      cfg.ShoppingListTitle,
			PDFFontPath:    cfg.PDFFontPath,
		},
		Follows:  &application.FollowService{Follows: follows, Users: users, Recipes: recipes},
		Notifier: notifier,
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	jwt := container.GetJWT()
	deps := buildDeps()

	paging := handlers.Paging{Default: cfg.PageSize, Max: cfg.MaxPageSize}
	cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(deps.Users, logger, cookies), jwt))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(deps.Users, deps.Follows, logger, cookies, paging, cfg.SubscriptionRecipesLimit), jwt))
	r.Add(modules.NewCatalogModule(handlers.NewCatalogHandler(deps.Catalog, logger), jwt))
	r.Add(modules.NewRecipeModule(handlers.NewRecipeHandler(deps.Recipes, deps.Relations, logger, paging), jwt, cfg.MaxBodyBytes))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}

	if pool := container.GetPGPool(); pool != nil {
		r.AddCheck("postgres", pool.Ping)
	}
	if rdb := container.GetRedis(); rdb != nil {
		r.AddCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	return deps
}
