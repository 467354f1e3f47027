package webserver

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ptrdsh/participatory-budgeting/src/api/cardano"
	"github.com/ptrdsh/participatory-budgeting/src/api/data"
	"github.com/ptrdsh/participatory-budgeting/src/api/types"
)

type Auth struct {
	rdb       *redis.Client
	jwtSecret []byte
	db        *gorm.DB
}

func NewAuth(rdb *redis.Client, secret []byte, db *gorm.DB) Auth {
	return Auth{rdb: rdb, jwtSecret: secret, db: db}
}

func randomHex32() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (a Auth) Challenge(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress" binding:"required,min=16,max=128"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	nonce, err := randomHex32()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to create challenge"})
		return
	}
	if err := data.SetNonce(c, a.rdb, req.WalletAddress, nonce); err != nil {
		log.Printf("set nonce for %s: %v", req.WalletAddress, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

func (a Auth) Verify(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress" binding:"required,min=16,max=128"`
		StakeAddress  string `json:"stakeAddress"`
		Signature     string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	nonce, err := data.GetNonce(c, a.rdb, req.WalletAddress)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "challenge expired or not found"})
		return
	}
	if err := cardano.VerifySignature(req.WalletAddress, req.Signature, nonce); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "bad signature"})
		return
	}
	data.DelNonce(c, a.rdb, req.WalletAddress)

	var user types.User
	err = a.db.First(&user, "wallet_address = ?", req.WalletAddress).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = types.User{
			Username:      "drep-" + uuid.NewString()[:8],
			WalletAddress: req.WalletAddress,
			StakeAddress:  req.StakeAddress,
		}
		if status, serr := cardano.CheckDRepStatus(a.db, req.StakeAddress); serr == nil {
			user.IsDRep = status.IsDRep
			user.VotingPower = status.VotingPower
		}
		if err := a.db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
			return
		}
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	token, err := IssueToken(a.jwtSecret, user.ID, user.WalletAddress)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":       token,
		"userId":      user.ID,
		"isDRep":      user.IsDRep,
		"votingPower": user.VotingPower,
	})
}
