package session

import (
	"gesdoc/bizerror"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

const TokenExpiration = 24 * time.Hour

var TokenCache = cache.New(TokenExpiration, 1*time.Minute)

type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

const KeySecCtx = "SecCtx"
const KeySecToken = "sec_token"

func ExtractSessionFromGinContext(ctx *gin.Context) *Session {
	value, found := ctx.Get(KeySecCtx)
	if !found {
		return &Session{Context: ctx.Request.Context()}
	}
	s0, ok := value.(*Session)
	if !ok || s0.Token == "" {
		return &Session{Context: ctx.Request.Context()}
	}
	s := s0.Clone()
	s.Context = ctx.Request.Context() // trace context
	return &s
}

func SimpleAuthFilter() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(KeySecToken)
		if err != nil {
			panic(bizerror.ErrUnauthenticated)
		}
		s := sessionOfToken(token)
		if s == nil {
			panic(bizerror.ErrUnauthenticated)
		}
		InjectSessionIntoGinContext(ctx, s)
		ctx.Next()
	}
}

func sessionOfToken(token string) *Session {
	value, found := TokenCache.Get(token)
	if !found {
		return nil
	}
	s, ok := value.(*Session)
	if !ok {
		return nil
	}
	return s
}

func InjectSessionIntoGinContext(ctx *gin.Context, s *Session) {
	if s != nil && s.Token != "" {
		ctx.Set(KeySecCtx, s)
	}
}
