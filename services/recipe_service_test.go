package services

import (
	"strings"
	"sync"
	"testing"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/models"
)

var longText = strings.Repeat("Low glycemic and slow to cook. ", 3)

func recipeRequest(title string) dto.RecipeRequest {
	return dto.RecipeRequest{
		Title:        title,
		Description:  longText,
		Ingredients:  []string{"2 eggs", " spinach ", ""},
		Instructions: longText,
		PrepTime:     ptr(20),
		Servings:     ptr(2),
		Tags:         []string{"Breakfast", "low-carb", "breakfast"},
	}
}

func newRecipeService(t *testing.T) (*RecipeService, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	return NewRecipeService(newDB(t), store), store
}

func TestCreateRecipe(t *testing.T) {
	s, store := newRecipeService(t)
	editor := seedUser(t, s.db, "ed@example.com", models.RoleEditor)

	_, err := s.Create(editor.ID, recipeRequest("Omelette"), nil)
	wantKind(t, err, apperrors.KindValidation)

	short := recipeRequest("Omelette")
	short.Description = "too short"
	_, err = s.Create(editor.ID, short, upload("dish.png"))
	wantKind(t, err, apperrors.KindValidation)
	if store.count() != 0 {
		t.Errorf("rejected request stored %d files", store.count())
	}

	negative := recipeRequest("Omelette")
	negative.Nutrition = &models.NutritionInfo{Calories: ptr(-1.0)}
	_, err = s.Create(editor.ID, negative, upload("dish.png"))
	wantKind(t, err, apperrors.KindValidation)

	recipe, err := s.Create(editor.ID, recipeRequest(" Omelette "), upload("dish.png"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if recipe.Title != "Omelette" || !recipe.IsPublished || recipe.Difficulty != models.DifficultyEasy {
		t.Errorf("recipe = %+v", recipe.Recipe)
	}
	if len(recipe.Ingredients) != 2 || strings.Join(recipe.Tags, ",") != "breakfast,low-carb" {
		t.Errorf("ingredients = %q tags = %q", recipe.Ingredients, recipe.Tags)
	}
	if !store.has(recipe.ImageURL) {
		t.Errorf("image %q not stored", recipe.ImageURL)
	}
}

func TestRecipeAuthorship(t *testing.T) {
	s, store := newRecipeService(t)
	ed := seedUser(t, s.db, "ed@example.com", models.RoleEditor)
	other := seedUser(t, s.db, "other@example.com", models.RoleEditor)
	admin := seedUser(t, s.db, "admin@example.com", models.RoleAdmin)

	recipe, err := s.Create(ed.ID, recipeRequest("Omelette"), upload("dish.png"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// another author's recipe answers exactly like a missing one
	_, foreign := s.Update(ownerScope(other, models.RoleAdmin), recipe.ID, dto.UpdateRecipeRequest{Title: ptr("Stolen")}, nil)
	wantKind(t, foreign, apperrors.KindNotFound)
	_, missing := s.Update(ownerScope(other, models.RoleAdmin), "missing", dto.UpdateRecipeRequest{Title: ptr("x")}, nil)
	wantKind(t, missing, apperrors.KindNotFound)
	if foreign.Error() != missing.Error() {
		t.Errorf("foreign error %q differs from missing error %q", foreign, missing)
	}

	err = s.Delete(ownerScope(other, models.RoleAdmin), recipe.ID)
	wantKind(t, err, apperrors.KindNotFound)
	if stored, err := s.repo.FindByID(recipe.ID); err != nil || stored.Title != "Omelette" {
		t.Errorf("foreign update or delete changed the recipe: %+v, %v", stored, err)
	}

	oldImage := recipe.ImageURL
	updated, err := s.Update(ownerScope(admin, models.RoleAdmin), recipe.ID, dto.UpdateRecipeRequest{Title: ptr("Admin omelette")}, upload("new.png"))
	if err != nil {
		t.Fatalf("admin Update() error = %v", err)
	}
	if updated.Title != "Admin omelette" || updated.EditorID != ed.ID {
		t.Errorf("updated = %+v", updated.Recipe)
	}
	if store.has(oldImage) || !store.has(updated.ImageURL) {
		t.Errorf("old image kept = %v, new image stored = %v", store.has(oldImage), store.has(updated.ImageURL))
	}

	if err := s.Delete(ownerScope(ed, models.RoleAdmin), recipe.ID); err != nil {
		t.Fatalf("owner Delete() error = %v", err)
	}
	if store.count() != 0 {
		t.Errorf("files left = %d", store.count())
	}
}

func TestUpdateRecipeImageRollback(t *testing.T) {
	s, store := newRecipeService(t)
	ed := seedUser(t, s.db, "ed@example.com", models.RoleEditor)
	recipe, err := s.Create(ed.ID, recipeRequest("Omelette"), upload("dish.png"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	store.removeErr = errDiskGone
	_, err = s.Update(ownerScope(ed, models.RoleAdmin), recipe.ID, dto.UpdateRecipeRequest{Title: ptr("Renamed")}, upload("new.png"))
	wantKind(t, err, apperrors.KindInternal)

	stored, err := s.repo.FindByID(recipe.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if stored.Title != "Omelette" || stored.ImageURL != recipe.ImageURL {
		t.Errorf("recipe changed despite failure: %+v", stored)
	}
}

func TestDeleteRecipeKeepsRowWhenImageRemovalFails(t *testing.T) {
	s, store := newRecipeService(t)
	ed := seedUser(t, s.db, "ed@example.com", models.RoleEditor)
	recipe, err := s.Create(ed.ID, recipeRequest("Omelette"), upload("dish.png"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	store.removeErr = errDiskGone
	err = s.Delete(ownerScope(ed, models.RoleAdmin), recipe.ID)
	wantKind(t, err, apperrors.KindInternal)
	if _, err := s.repo.FindByID(recipe.ID); err != nil {
		t.Errorf("recipe row removed: %v", err)
	}
}

func TestRecipeViewsConcurrent(t *testing.T) {
	s, _ := newRecipeService(t)
	ed := seedUser(t, s.db, "ed@example.com", models.RoleEditor)
	recipe, err := s.Create(ed.ID, recipeRequest("Omelette"), upload("dish.png"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	const readers = 20
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Get(recipe.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Get() error = %v", err)
	}

	got, err := s.Get(recipe.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Views != readers+1 {
		t.Errorf("views = %d, want %d", got.Views, readers+1)
	}
	if got.Author == nil || got.Author.Email != "ed@example.com" {
		t.Errorf("author = %+v", got.Author)
	}
}

func TestDraftsStayPrivate(t *testing.T) {
	s, _ := newRecipeService(t)
	ed := seedUser(t, s.db, "ed@example.com", models.RoleEditor)

	draft := recipeRequest("Draft soup")
	draft.IsPublished = ptr(false)
	created, err := s.Create(ed.ID, draft, upload("soup.png"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := s.Create(ed.ID, recipeRequest("Public salad"), upload("salad.png")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = s.Get(created.ID)
	wantKind(t, err, apperrors.KindNotFound)

	public, err := s.List(dto.RecipeFilter{PageRequest: dto.NewPageRequest(1, 0, PublicRecipePageSize)})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if public.Pagination.Total != 1 || public.Recipes[0].Title != "Public salad" {
		t.Errorf("public list = %+v", public.Recipes)
	}

	mine, err := s.MyList(ed.ID, dto.RecipeFilter{PageRequest: dto.NewPageRequest(1, 10, 10)})
	if err != nil {
		t.Fatalf("MyList() error = %v", err)
	}
	if mine.Pagination.Total != 2 {
		t.Errorf("my list total = %d", mine.Pagination.Total)
	}

	stats, err := s.MyStats(ed.ID)
	if err != nil {
		t.Fatalf("MyStats() error = %v", err)
	}
	if stats.TotalRecipes != 2 || stats.PublishedRecipes != 1 || stats.DraftRecipes != 1 || stats.ByDifficulty["Easy"] != 2 {
		t.Errorf("stats = %+v", stats)
	}

	tags, err := s.Tags()
	if err != nil {
		t.Fatalf("Tags() error = %v", err)
	}
	if len(tags) != 2 || tags[0].Count != 1 {
		t.Errorf("tags = %+v", tags)
	}
}

func TestAdminRecipeStats(t *testing.T) {
	s, _ := newRecipeService(t)
	ed := seedUser(t, s.db, "ed@example.com", models.RoleEditor)
	admin := seedUser(t, s.db, "admin@example.com", models.RoleAdmin)

	for _, title := range []string{"One", "Two"} {
		if _, err := s.Create(ed.ID, recipeRequest(title), upload("a.png")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if _, err := s.Create(admin.ID, recipeRequest("Three"), upload("b.png")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	stats, err := s.AdminStats()
	if err != nil {
		t.Fatalf("AdminStats() error = %v", err)
	}
	if stats.TotalRecipes != 3 || stats.RecentRecipes != 3 || stats.TotalAuthors != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if len(stats.TopAuthors) != 2 || stats.TopAuthors[0].EditorID != ed.ID || stats.TopAuthors[0].Count != 2 {
		t.Errorf("top authors = %+v", stats.TopAuthors)
	}
}
