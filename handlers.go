package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"divetrack/models"
	"divetrack/pkg/ocr"
	"divetrack/pkg/statparse"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// maxBatchSize caps screenshots per upload batch; the stat screens fit on at
// most three images (player card + two career pages).
const maxBatchSize = 3

const maxScreenshotBytes = 8 * 1024 * 1024

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/profile", createProfileHandler)
	authGroup.GET("/profile", getProfileHandler)
	authGroup.POST("/screenshots", uploadScreenshotsHandler)
	authGroup.GET("/snapshots", listSnapshotsHandler)
	authGroup.GET("/snapshots/latest", latestSnapshotHandler)
	authGroup.GET("/snapshots/:id", getSnapshotHandler)
	authGroup.PUT("/snapshots/:id", reviewSnapshotHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": usernameVal.(string)})
}

// getUserFromContext fetches the currently authenticated user using the username set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	var user models.User
	if err := db.Where("username = ?", unameVal.(string)).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	tokenString, err := signAccessToken(user, 24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// signAccessToken builds a JWT with the username and resolved role name.
func signAccessToken(user models.User, ttl time.Duration) (string, error) {
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	rt := models.RefreshToken{UserID: userID, TokenHash: hex.EncodeToString(h[:]), ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	tokenString, err := signAccessToken(user, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

func createProfileHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		PlayerName string `json:"player_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile := models.Profile{UserID: user.ID, PlayerName: req.PlayerName}
	if err := db.Create(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": profile.ID})
}

func getProfileHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var p models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&p).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// uploadScreenshotsHandler ingests one upload batch: up to three stat-screen
// images. OCR runs concurrently per image; parsing follows per text; the
// merge waits for every image to resolve because upload order is the only
// tie-break signal and all results must be in before it runs.
func uploadScreenshotsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var profile models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile missing"})
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	files := form.File["screenshots"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no screenshots in request"})
		return
	}
	if len(files) > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("at most %d screenshots per batch", maxBatchSize)})
		return
	}

	folder := filepath.Join(uploadBaseDir(), "screenshots", fmt.Sprint(profile.ID))
	if err := os.MkdirAll(folder, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	paths := make([]string, len(files))
	for i, fh := range files {
		if fh.Size > maxScreenshotBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file %s too large (max 8MB)", fh.Filename)})
			return
		}
		dst := filepath.Join(folder, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(fh.Filename)))
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
			return
		}
		paths[i] = dst
	}

	// One OCR call per image, concurrently; index i keeps upload order.
	results := make([]statparse.ParseResult, len(files))
	layouts := make([]string, len(files))
	ocrErrs := make([]error, len(files))
	var wg sync.WaitGroup
	for i := range files {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text, err := ocr.RecognizeScreenshot(paths[i])
			if err != nil {
				ocrErrs[i] = err
				results[i] = statparse.NewParseResult()
				return
			}
			results[i] = statparse.Parse(text)
			layouts[i] = statparse.DetectLayout(text).String()
		}(i)
	}
	wg.Wait()
	merged := statparse.Merge(results)

	snapshot := models.StatSnapshot{ProfileID: profile.ID, Status: models.SnapshotPending}
	if merged.PlayerName != nil {
		snapshot.PlayerName = *merged.PlayerName
	}
	if err := db.Create(&snapshot).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}
	for _, key := range statparse.AllStatKeys {
		v, ok := merged.Stats[key]
		if !ok {
			continue
		}
		sv := models.StatValue{SnapshotID: snapshot.ID, Key: string(key), Value: v, Confidence: string(merged.Confidence[key])}
		if err := db.Create(&sv).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
			return
		}
	}

	failed := []string{}
	for i, fh := range files {
		sid := snapshot.ID
		shot := models.Screenshot{
			ProfileID:   profile.ID,
			FileName:    fh.Filename,
			StorePath:   paths[i],
			ContentType: fh.Header.Get("Content-Type"),
			SnapshotID:  &sid,
			BatchIndex:  i,
			Layout:      layouts[i],
		}
		if ocrErrs[i] != nil {
			shot.Failed = true
			shot.FailedReason = ocrErrs[i].Error()
			failed = append(failed, fh.Filename)
		}
		if err := db.Create(&shot).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshot_id": snapshot.ID,
		"result":      merged,
		"empty":       merged.Empty(),
		"failed":      failed,
	})
}

// reviewSnapshotHandler applies the user's corrections from the review UI and
// confirms the snapshot. The parser deliberately does no semantic validation;
// this is where negative values and unknown keys get rejected.
func reviewSnapshotHandler(c *gin.Context) {
	snapshot, ok := snapshotForRequest(c)
	if !ok {
		return
	}
	var req struct {
		PlayerName *string          `json:"player_name"`
		Set        map[string]int64 `json:"set"`
		Remove     []string         `json:"remove"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for k, v := range req.Set {
		if !statparse.ValidStatKey(statparse.StatKey(k)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown stat key %q", k)})
			return
		}
		if v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("negative value for %q", k)})
			return
		}
	}
	for _, k := range req.Remove {
		if !statparse.ValidStatKey(statparse.StatKey(k)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown stat key %q", k)})
			return
		}
	}

	for k, v := range req.Set {
		var sv models.StatValue
		if err := db.Where("snapshot_id = ? AND key = ?", snapshot.ID, k).First(&sv).Error; err == nil {
			sv.Value = v
			sv.Corrected = true
			db.Save(&sv)
		} else {
			db.Create(&models.StatValue{SnapshotID: snapshot.ID, Key: k, Value: v, Corrected: true})
		}
	}
	if len(req.Remove) > 0 {
		db.Where("snapshot_id = ? AND key IN ?", snapshot.ID, req.Remove).Delete(&models.StatValue{})
	}
	if req.PlayerName != nil {
		snapshot.PlayerName = *req.PlayerName
	}
	snapshot.Status = models.SnapshotConfirmed
	if err := db.Save(snapshot).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}
	// Backfill the profile handle from the first confirmed snapshot.
	if snapshot.PlayerName != "" {
		var p models.Profile
		if err := db.First(&p, snapshot.ProfileID).Error; err == nil && p.PlayerName == "" {
			p.PlayerName = snapshot.PlayerName
			db.Save(&p)
		}
	}
	c.JSON(http.StatusOK, gin.H{"id": snapshot.ID, "status": snapshot.Status})
}

func listSnapshotsHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var profile models.Profile
	db.Where("user_id = ?", user.ID).First(&profile)
	var snaps []models.StatSnapshot
	q := db.Model(&models.StatSnapshot{}).Preload("Values")
	if role != "administrator" {
		q = q.Where("profile_id = ?", profile.ID)
	}
	if err := q.Order("id desc").Limit(100).Find(&snaps).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, snaps)
}

func latestSnapshotHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var profile models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile missing"})
		return
	}
	var snap models.StatSnapshot
	if err := db.Preload("Values").
		Where("profile_id = ? AND status = ?", profile.ID, models.SnapshotConfirmed).
		Order("id desc").First(&snap).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no confirmed snapshot"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func getSnapshotHandler(c *gin.Context) {
	snapshot, ok := snapshotForRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// snapshotForRequest loads the :id snapshot with values and enforces
// owner-or-admin access. On failure it writes the error response itself.
func snapshotForRequest(c *gin.Context) (*models.StatSnapshot, bool) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return nil, false
	}
	var profile models.Profile
	db.Where("user_id = ?", user.ID).First(&profile)
	var snap models.StatSnapshot
	if err := db.Preload("Values").First(&snap, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	if role != "administrator" && snap.ProfileID != profile.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}
	return &snap, true
}
