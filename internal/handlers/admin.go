package handlers

import (
	"log"
	"sort"

	"github.com/gofiber/fiber/v2"

	"toolhost/internal/jobs"
	"toolhost/internal/middleware"
	"toolhost/internal/services"
)

// AdminHandler exposes background jobs and the catalog policy to operators
type AdminHandler struct {
	jobs   *jobs.JobScheduler
	policy *services.CatalogPolicy
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(scheduler *jobs.JobScheduler, policy *services.CatalogPolicy) *AdminHandler {
	return &AdminHandler{jobs: scheduler, policy: policy}
}

type jobResponse struct {
	Name     string `json:"name"`
	Interval string `json:"interval"`
	Running  bool   `json:"running"`
}

// ListJobs returns the registered jobs ordered by name
// GET /api/admin/jobs
func (h *AdminHandler) ListJobs(c *fiber.Ctx) error {
	status := h.jobs.GetStatus()

	response := make([]jobResponse, 0, len(status))
	for _, job := range status {
		response = append(response, jobResponse{
			Name:     job.Name,
			Interval: job.Interval.String(),
			Running:  job.Running,
		})
	}
	sort.Slice(response, func(i, j int) bool { return response[i].Name < response[j].Name })

	return c.JSON(fiber.Map{"jobs": response})
}

// RunJob runs a job immediately and waits for it
// POST /api/admin/jobs/:name/run
func (h *AdminHandler) RunJob(c *fiber.Ctx) error {
	name := c.Params("name")
	if _, ok := h.jobs.GetStatus()[name]; !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
		})
	}

	if err := h.jobs.RunNow(name); err != nil {
		log.Printf("❌ [ADMIN] Job %s failed: %v", name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"name": name, "status": "completed"})
}

// GetCatalogPolicy returns the tools currently disabled
// GET /api/admin/catalog-policy
func (h *AdminHandler) GetCatalogPolicy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"disabled": h.policy.Disabled()})
}

// ReloadCatalogPolicy re-reads the policy file without waiting for the watcher
// POST /api/admin/catalog-policy/reload
func (h *AdminHandler) ReloadCatalogPolicy(c *fiber.Ctx) error {
	if err := h.policy.Reload(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	log.Printf("📋 [ADMIN] Catalog policy reloaded by %s", middleware.LocalString(c, middleware.LocalUserID))
	return c.JSON(fiber.Map{"disabled": h.policy.Disabled()})
}
