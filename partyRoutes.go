package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/middlewares"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
)

const partyImageFolder = "parties"

func listPartiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		parties, err := models.ListParties(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		creatorIds := make([]string, 0, len(parties))
		for _, p := range parties {
			creatorIds = append(creatorIds, p.CreatedBy)
		}
		emails, err := middlewares.UserEmails(ctx, creatorIds)
		if err != nil {
			respondError(c, err)
			return
		}
		views := make([]*models.PartyView, 0, len(parties))
		for _, p := range parties {
			views = append(views, models.NewPartyView(p, emails[p.CreatedBy]))
		}
		c.JSON(http.StatusOK, views)
	}
}

func getPartyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		party, err := models.GetParty(ctx, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		email := ""
		if creator, err := middlewares.GetUser(ctx, party.CreatedBy); err == nil && creator != nil {
			email = creator.Email
		}
		c.JSON(http.StatusOK, models.NewPartyView(party, email))
	}
}

func createPartyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewParty
		if err := c.ShouldBind(&input); err != nil {
			respondError(c, utils.NewValidationError(err.Error()))
			return
		}
		image := ""
		if isMultipart(c) {
			var err error
			if image, err = uploadFormImage(c, "image", partyImageFolder); err != nil {
				respondError(c, err)
				return
			}
		}
		party, err := models.CreateParty(c.Request.Context(), &input, image)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, party)
	}
}

func bindPartyPatch(c *gin.Context) (*models.PartyPatch, error) {
	var input models.PartyPatch
	if !isMultipart(c) && c.ContentType() != "application/x-www-form-urlencoded" {
		if err := c.ShouldBindJSON(&input); err != nil {
			return nil, err
		}
		return &input, nil
	}
	if isMultipart(c) {
		if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
			return nil, err
		}
	} else if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	input.Name = optionalFormString(c, "name")
	input.Phone = optionalFormString(c, "phone")
	input.Email = optionalFormString(c, "email")
	input.Address = optionalFormString(c, "address")
	input.Notes = optionalFormString(c, "notes")
	isActive, err := optionalFormBool(c, "is_active")
	if err != nil {
		return nil, err
	}
	if isActive == nil {
		// camelCase, as the dashboard sends it
		if isActive, err = optionalFormBool(c, "isActive"); err != nil {
			return nil, err
		}
	}
	input.IsActive = isActive
	return &input, nil
}

func updatePartyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		input, err := bindPartyPatch(c)
		if err != nil {
			respondError(c, utils.NewValidationError(err.Error()))
			return
		}
		image := ""
		if isMultipart(c) {
			if image, err = uploadFormImage(c, "image", partyImageFolder); err != nil {
				respondError(c, err)
				return
			}
		}
		party, err := models.UpdateParty(c.Request.Context(), c.Param("id"), input, image)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, party)
	}
}

func deletePartyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := models.DeleteParty(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
