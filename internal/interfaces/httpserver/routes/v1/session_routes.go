package v1

import (
	"errors"
	"html/template"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"jan-server/services/whatsapp-api/internal/domain/session"
	"jan-server/services/whatsapp-api/internal/interfaces/httpserver/handlers"
	"jan-server/services/whatsapp-api/internal/interfaces/httpserver/qrpage"
	sessionreq "jan-server/services/whatsapp-api/internal/interfaces/httpserver/requests/session"
	"jan-server/services/whatsapp-api/internal/interfaces/httpserver/responses"
	sessionres "jan-server/services/whatsapp-api/internal/interfaces/httpserver/responses/session"
	"jan-server/services/whatsapp-api/internal/utils/platformerrors"
)

// RegisterSessionRoutes registers the WhatsApp session routes.
func RegisterSessionRoutes(router gin.IRoutes, handler *handlers.SessionHandler) {
	router.GET("/sessions", listSessions(handler))
	router.POST("/sessions/restore", restoreSessions(handler))

	router.POST("/sessions/:phone/initialize", initializeSession(handler))
	router.GET("/sessions/:phone/status", getStatus(handler))
	router.POST("/sessions/:phone/logout", logout(handler))
	router.POST("/sessions/:phone/send", sendMessage(handler))
	router.DELETE("/sessions/:phone", deleteSession(handler))

	// QR handoff
	router.GET("/sessions/:phone/qr", qrPage(handler))
	router.GET("/sessions/:phone/qr/json", qrJSON(handler))
	router.GET("/sessions/:phone/qr.png", qrPNG(handler))
}

// listSessions godoc
// @Summary      List sessions
// @Description  Lists every session registered in this process
// @Tags         Sessions
// @Produce      json
// @Success      200 {object} sessionres.ListSessionsResponse
// @Failure      401 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /sessions [get]
func listSessions(handler *handlers.SessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, sessionres.NewListSessionsResponse(handler.ListSessions(c.Request.Context())))
	}
}

// restoreSessions godoc
// @Summary      Restore sessions
// @Description  Starts a session for every stored credential archive and prunes the ones that fail
// @Tags         Sessions
// @Produce      json
// @Success      200 {object} sessionres.RestoreResponse
// @Failure      401 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/restore [post]
func restoreSessions(handler *handlers.SessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := handler.RestoreSessions(c.Request.Context())
		c.JSON(http.StatusOK, sessionres.NewRestoreResponse(result))
	}
}

// initializeSession godoc
// @Summary      Initialize a session
// @Description  Starts the session for a phone number. By default any existing session is destroyed first.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        phone path string true "Phone number"
// @Param        request body sessionreq.InitializeSessionRequest false "Initialize options"
// @Success      200 {object} sessionres.InitializeResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      500 {object} responses.ErrorResponse
// @Failure      502 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{phone}/initialize [post]
func initializeSession(handler *handlers.SessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sessionreq.InitializeSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body: "+err.Error())
			return
		}

		view, err := handler.Initialize(c.Request.Context(), c.Param("phone"), req.Force())
		if err != nil {
			responses.HandleError(c, err, "failed to initialize session")
			return
		}

		c.JSON(http.StatusOK, sessionres.NewInitializeResponse(view, handler.QRURL(view.Identifier)))
	}
}

// getStatus godoc
// @Summary      Get session status
// @Description  Reports the lifecycle state of a phone number's session
// @Tags         Sessions
// @Produce      json
// @Param        phone path string true "Phone number"
// @Success      200 {object} sessionres.StatusResponse
// @Failure      400 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{phone}/status [get]
func getStatus(handler *handlers.SessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := handler.Status(c.Request.Context(), c.Param("phone"))
		if err != nil {
			responses.HandleError(c, err, "failed to get session status")
			return
		}
		c.JSON(http.StatusOK, sessionres.NewStatusResponse(view))
	}
}

// logout godoc
// @Summary      Log out a session
// @Description  Unlinks the device, removes the session and deletes its stored credentials
// @Tags         Sessions
// @Produce      json
// @Param        phone path string true "Phone number"
// @Success      200 {object} sessionres.MessageResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      502 {object} responses.ErrorResponse
// @Failure      503 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{phone}/logout [post]
func logout(handler *handlers.SessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone := c.Param("phone")
		if err := handler.Logout(c.Request.Context(), phone); err != nil {
			responses.HandleError(c, err, "failed to log out session")
			return
		}
		c.JSON(http.StatusOK, sessionres.MessageResponse{
			PhoneNumber: session.Normalize(phone).String(),
			Message:     "session logged out",
		})
	}
}

// sendMessage godoc
// @Summary      Send a message
// @Description  Sends a text message from a ready session. Plain phone numbers are addressed as <digits>@c.us.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        phone path string true "Phone number"
// @Param        request body sessionreq.SendMessageRequest true "Message"
// @Success      200 {object} sessionres.SendMessageResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      404 {object} responses.ErrorResponse
// @Failure      502 {object} responses.ErrorResponse
// @Failure      503 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{phone}/send [post]
func sendMessage(handler *handlers.SessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sessionreq.SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "to and message are required")
			return
		}

		result, err := handler.SendMessage(c.Request.Context(), c.Param("phone"), req.To, req.Message)
		if err != nil {
			responses.HandleError(c, err, "failed to send message")
			return
		}
		c.JSON(http.StatusOK, sessionres.NewSendMessageResponse(result))
	}
}

// deleteSession godoc
// @Summary      Delete a session
// @Description  Destroys the local session. Stored credentials are kept so the session can be restored.
// @Tags         Sessions
// @Produce      json
// @Param        phone path string true "Phone number"
// @Success      200 {object} sessionres.DeleteSessionResponse
// @Failure      400 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{phone} [delete]
func deleteSession(handler *handlers.SessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone := c.Param("phone")
		deleted, err := handler.Delete(c.Request.Context(), phone)
		if err != nil {
			responses.HandleError(c, err, "failed to delete session")
			return
		}
		c.JSON(http.StatusOK, sessionres.NewDeleteSessionResponse(session.Normalize(phone).String(), deleted))
	}
}

// qrPage godoc
// @Summary      QR code page
// @Description  HTML page showing the pending QR code. Waits briefly for a QR and refreshes itself.
// @Tags         QR
// @Produce      html
// @Param        phone path string true "Phone number"
// @Success      200 {string} string "HTML page"
// @Failure      400 {string} string "HTML page"
// @Security     BearerAuth
// @Router       /sessions/{phone}/qr [get]
func qrPage(handler *handlers.SessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := handler.QRCode(c.Request.Context(), c.Param("phone"), true)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, session.ErrInvalidIdentifier) {
				status = http.StatusBadRequest
			}
			c.HTML(status, qrpage.ErrorTemplate, qrpage.Page{Message: err.Error()})
			return
		}

		page := qrpage.Page{PhoneNumber: view.PhoneNumber}
		switch {
		case view.Ready:
			c.HTML(http.StatusOK, qrpage.AuthenticatedTemplate, page)
		case view.HasQR:
			image, err := qrpage.DataURL(view.QR)
			if err != nil {
				c.HTML(http.StatusInternalServerError, qrpage.ErrorTemplate, qrpage.Page{Message: err.Error()})
				return
			}
			page.QRImage = template.URL(image)
			page.Refresh = qrpage.QRRefreshSeconds
			c.HTML(http.StatusOK, qrpage.QRTemplate, page)
		default:
			page.Refresh = qrpage.WaitingRefreshSeconds
			if !view.Registered {
				page.Message = "No session is running for this number. Initialize it to receive a QR code."
			}
			c.HTML(http.StatusOK, qrpage.WaitingTemplate, page)
		}
	}
}

// qrJSON godoc
// @Summary      QR code as JSON
// @Description  Returns the pending QR payload and a PNG data URL
// @Tags         QR
// @Produce      json
// @Param        phone path string true "Phone number"
// @Success      200 {object} sessionres.QRResponse
// @Failure      400 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{phone}/qr/json [get]
func qrJSON(handler *handlers.SessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := handler.QRCode(c.Request.Context(), c.Param("phone"), false)
		if err != nil {
			responses.HandleError(c, err, "failed to get qr code")
			return
		}

		resp := sessionres.QRResponse{
			PhoneNumber: view.PhoneNumber,
			HasQR:       view.HasQR,
			Ready:       view.Ready,
		}
		switch {
		case view.Ready:
			resp.Message = "session is already authenticated"
		case view.HasQR:
			image, err := qrpage.DataURL(view.QR)
			if err != nil {
				responses.HandleError(c, err, "failed to render qr code")
				return
			}
			resp.QR = view.QR
			resp.QRImage = image
		default:
			resp.Message = "no QR code available yet"
		}
		c.JSON(http.StatusOK, resp)
	}
}

// qrPNG godoc
// @Summary      QR code image
// @Description  Returns the pending QR code as a PNG image
// @Tags         QR
// @Produce      png
// @Param        phone path string true "Phone number"
// @Success      200 {file} binary
// @Failure      400 {object} responses.ErrorResponse
// @Failure      404 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{phone}/qr.png [get]
func qrPNG(handler *handlers.SessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := handler.QRCode(c.Request.Context(), c.Param("phone"), false)
		if err != nil {
			responses.HandleError(c, err, "failed to get qr code")
			return
		}
		if !view.HasQR {
			responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "no QR code available")
			return
		}

		png, err := qrpage.PNG(view.QR)
		if err != nil {
			responses.HandleError(c, err, "failed to render qr code")
			return
		}
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "image/png", png)
	}
}
