package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/middlewares"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
)

const userImageFolder = "users"

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBind(&input); err != nil {
			respondError(c, utils.NewValidationError(err.Error()))
			return
		}
		image := ""
		if isMultipart(c) {
			var err error
			if image, err = uploadFormImage(c, "profileImage", userImageFolder); err != nil {
				respondError(c, err)
				return
			}
		}
		user, err := models.CreateUser(c.Request.Context(), &input, image)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func getUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := middlewares.GetUser(c.Request.Context(), c.Param("id"))
		if err == nil && user == nil {
			err = utils.ErrorRecordNotFound
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input loginRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, utils.NewValidationError(err.Error()))
			return
		}
		info, err := models.Login(c.Request.Context(), input.Email, input.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := models.Logout(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": ok})
	}
}

// identityLoginHandler is called by the OAuth front proxy once it has
// authenticated the user; it answers with a local session token.
func identityLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var profile models.IdentityProfile
		if err := c.ShouldBindJSON(&profile); err != nil {
			respondError(c, utils.NewValidationError(err.Error()))
			return
		}
		info, err := models.FindOrCreateIdentityUser(c.Request.Context(), &profile)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, info)
	}
}
