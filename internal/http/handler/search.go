package handler

import (
	"github.com/gofiber/fiber/v2"

	"docvault/internal/service"
)

// SearchDocuments filters documents by tags, free text and file type. All
// supplied filters combine with AND; match_all switches tag matching from
// any-of to all-of.
func SearchDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		skip, limit, err := parsePagination(c)
		if err != nil {
			return writePaginationError(c, err)
		}

		in := service.SearchInput{
			Query:    c.Query("query"),
			FileType: c.Query("file_type"),
			MatchAll: c.QueryBool("match_all", false),
			Skip:     skip,
			Limit:    limit,
		}
		// An omitted tags parameter means no tag filter; a present one is
		// parsed even when it normalizes to nothing.
		if raw := c.Query("tags"); raw != "" {
			in.Tags = parseTagList(raw)
		}

		res, err := svc.Search(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}
