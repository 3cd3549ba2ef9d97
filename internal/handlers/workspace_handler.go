package handlers

import (
	"errors"
	"log"

	"sparkle-backend/internal/auth"
	"sparkle-backend/internal/models"
	"sparkle-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type WorkspaceHandler struct {
	workspace repo.WorkspaceRepoInterface
	billing   repo.BillingRepoInterface
}

func NewWorkspaceHandler(workspace repo.WorkspaceRepoInterface, billing repo.BillingRepoInterface) *WorkspaceHandler {
	return &WorkspaceHandler{workspace: workspace, billing: billing}
}

type createProjectRequest struct {
	Name string `json:"name"`
}

// CreateProject creates a project if the plan still has a free slot. The
// slot is consumed with a conditional increment, same as the daily message
// counter, so parallel requests cannot exceed the limit.
func (h *WorkspaceHandler) CreateProject(c *fiber.Ctx) error {
	userID, _ := auth.UserIDFromCtx(c)

	var req createProjectRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	customer, plan, entitled := h.entitledCustomer(c, userID)
	if !entitled {
		return nil
	}

	ok, err := h.billing.ConsumeProjectSlot(c.Context(), customer.ID, plan.ProjectsLimit)
	if err != nil {
		log.Println("consume project slot:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create project",
		})
	}
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Project limit reached for your plan",
		})
	}

	project := &models.Project{UserID: userID, Name: req.Name}
	if err := h.workspace.CreateProject(c.Context(), project); err != nil {
		log.Println("create project:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create project",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

func (h *WorkspaceHandler) ListProjects(c *fiber.Ctx) error {
	userID, _ := auth.UserIDFromCtx(c)

	projects, err := h.workspace.ListProjects(c.Context(), userID)
	if err != nil {
		log.Println("list projects:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list projects",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"projects": projects,
	})
}

type createBookmarkRequest struct {
	Name      string  `json:"name"`
	ProjectID *uint64 `json:"project_id"`
}

func (h *WorkspaceHandler) CreateBookmark(c *fiber.Ctx) error {
	userID, _ := auth.UserIDFromCtx(c)

	var req createBookmarkRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	customer, plan, entitled := h.entitledCustomer(c, userID)
	if !entitled {
		return nil
	}

	ok, err := h.billing.ConsumeBookmarkSlot(c.Context(), customer.ID, plan.BookmarksLimit)
	if err != nil {
		log.Println("consume bookmark slot:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create bookmark",
		})
	}
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Bookmark limit reached for your plan",
		})
	}

	bookmark := &models.Bookmark{UserID: userID, ProjectID: req.ProjectID, Name: req.Name}
	if err := h.workspace.CreateBookmark(c.Context(), bookmark); err != nil {
		log.Println("create bookmark:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create bookmark",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(bookmark)
}

func (h *WorkspaceHandler) ListBookmarks(c *fiber.Ctx) error {
	userID, _ := auth.UserIDFromCtx(c)

	bookmarks, err := h.workspace.ListBookmarks(c.Context(), userID)
	if err != nil {
		log.Println("list bookmarks:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list bookmarks",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"bookmarks": bookmarks,
	})
}

// entitledCustomer loads the caller's customer record and checks for an
// active subscription. On failure it writes the response and reports false.
func (h *WorkspaceHandler) entitledCustomer(c *fiber.Ctx, userID uint64) (*models.Customer, *models.Plan, bool) {
	customer, err := h.billing.GetCustomerByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error": "No active subscription",
			})
			return nil, nil, false
		}
		log.Println("load customer:", err)
		c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load account",
		})
		return nil, nil, false
	}
	if !customer.Entitled() {
		c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error": "No active subscription",
		})
		return nil, nil, false
	}
	return customer, &customer.Subscription.Plan, true
}
