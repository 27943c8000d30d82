package auth

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"studynotes/common"
	"studynotes/logger"
	"studynotes/models"
)

type AuthModule struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuthModule(db *gorm.DB, log *logger.Logger) *AuthModule {
	return &AuthModule{db: db, log: log}
}

func (a *AuthModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/", a.root)
	router.GET("/login", a.loginPage)
	router.POST("/login", a.loginPost)
	router.GET("/register", a.registerPage)
	router.POST("/register", a.registerPost)
	router.GET("/logout", common.RequireAuth, a.logout)
}

func (a *AuthModule) root(c *gin.Context) {
	if sessions.Default(c).Get(common.UserIDKey) != nil {
		c.Redirect(http.StatusFound, "/select")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func (a *AuthModule) loginPage(c *gin.Context) {
	if sessions.Default(c).Get(common.UserIDKey) != nil {
		c.Redirect(http.StatusFound, "/select")
		return
	}

	c.HTML(http.StatusOK, "auth_login.html", gin.H{
		"title":   "Login",
		"flashes": common.Flashes(c),
	})
}

func (a *AuthModule) loginPost(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		common.FlashRedirect(c, "Invalid email or password", "/login")
		return
	}

	if !checkPasswordHash(password, user.PasswordHash) {
		common.FlashRedirect(c, "Invalid email or password", "/login")
		return
	}

	session := sessions.Default(c)
	session.Set(common.UserIDKey, user.ID)
	session.Save()

	a.log.Info("user logged in", "user_id", user.ID)
	c.Redirect(http.StatusFound, "/select")
}

func (a *AuthModule) registerPage(c *gin.Context) {
	if sessions.Default(c).Get(common.UserIDKey) != nil {
		c.Redirect(http.StatusFound, "/select")
		return
	}

	c.HTML(http.StatusOK, "auth_register.html", gin.H{
		"title":   "Register",
		"flashes": common.Flashes(c),
	})
}

func (a *AuthModule) registerPost(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	username := strings.TrimSpace(c.PostForm("username"))

	if email == "" || password == "" {
		common.FlashRedirect(c, "Email and password are required", "/register")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		common.FlashRedirect(c, "Please enter a valid email address", "/register")
		return
	}
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	var existing models.User
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		common.FlashRedirect(c, "Email already registered. Please log in.", "/login")
		return
	}
	if err := a.db.Where("username = ?", username).First(&existing).Error; err == nil {
		common.FlashRedirect(c, "Username already taken", "/register")
		return
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		a.log.Error("error hashing password", "error", err)
		common.FlashRedirect(c, "Could not create account", "/register")
		return
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := a.db.Create(&user).Error; err != nil {
		a.log.Error("error creating user", "email", email, "error", err)
		common.FlashRedirect(c, "Could not create account", "/register")
		return
	}

	a.log.Info("user registered", "user_id", user.ID)
	common.FlashRedirect(c, "Registration successful! Please log in.", "/login")
}

// logout drops the whole session, response history included.
func (a *AuthModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.AddFlash("Logged out successfully.")
	session.Save()

	c.Redirect(http.StatusFound, "/login")
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
