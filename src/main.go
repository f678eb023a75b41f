package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gookit/goutil/dump"
	"github.com/grokify/go-pkce"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
	"github.com/tidwall/gjson"
	engineiotypes "github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"brs/src/boot"
	"brs/src/common"
	"brs/src/config"
	"brs/src/controllers"
	"brs/src/lib"
	"brs/src/middlewares"
	"brs/src/types"
	"brs/src/utils"
)

const (
	apiPrefix string = "/api/v1"
)

var birthdateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	birthdate, err := time.Parse(config.DATE_FORMAT, date)
	if err != nil {
		return false
	}
	return birthdate.Before(time.Now())
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		mm := os.Getenv("MAINTENANCE_MODE")
		atoi, err := strconv.ParseBool(mm)
		if err == nil && atoi {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, err.Error())
			return
		}
	})
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func publicRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.
		GET("/share/:filename", func(ctx *gin.Context) {
			apiEnv := os.Getenv("API_ENV")
			if apiEnv != "local" {
				ctx.Status(http.StatusNotFound)
				return
			}
			var params struct {
				Filename string `uri:"filename" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			assets := os.Getenv("TEMP_DIR")
			filePath := path.Join(assets, fmt.Sprintf("%s.jpeg", params.Filename))
			log.Printf("filePath: %s", filePath)
			ctx.File(filePath)
		})

	oauth := apiv1.Group("/oauth")
	oauth.
		GET("/google", func(ctx *gin.Context) {
			var query struct {
				Redirect string `form:"redirect" binding:"required"`
			}
			if err := ctx.BindQuery(&query); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}

			oauthcfg := googleOauthConfig()
			flowId := uuid.NewString()

			// Generate nonce
			nonce := make([]byte, 32)
			rand.Read(nonce)
			hnonce := hex.EncodeToString(nonce)
			go func() {
				ex := 10 * time.Minute
				rd := lib.GetRedisClient()
				rd.SetEx(
					context.Background(),
					fmt.Sprintf("oauth:nonce:%s", flowId),
					hnonce,
					ex,
				)
			}()
			if err := lib.MarkPendingSignIn(context.Background(), flowId); err != nil {
				log.Printf("Error marking pending sign-in: %s\n", err.Error())
			}

			// Create code challenge and verifier
			cv := pkce.NewCodeVerifierBytes(nonce)
			cc := pkce.CodeChallengeS256(cv)

			state := &types.Oauth2FlowState{
				FlowID:   flowId,
				Nonce:    hnonce,
				Redirect: query.Redirect,
			}
			b, err := json.Marshal(state)
			if err != nil {
				ctx.Status(http.StatusInternalServerError)
				return
			}
			keyBytes, err := hex.DecodeString(config.API_SECRET)
			if err != nil {
				log.Printf("Error while reading secret key: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			enc, err := utils.EncryptMessage(keyBytes, string(b))
			if err != nil {
				log.Printf("Error while encrypting message: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			authurl := oauthcfg.AuthCodeURL(
				enc,
				oauth2.AccessTypeOffline,
				oauth2.SetAuthURLParam(pkce.ParamCodeChallenge, cc),
				oauth2.SetAuthURLParam(pkce.ParamCodeChallengeMethod, pkce.MethodS256),
			)
			ctx.JSON(http.StatusOK, gin.H{"url": authurl})
		}).
		GET("/google/callback", func(ctx *gin.Context) {
			var query struct {
				State *string `form:"state" binding:"required"`
				Code  *string `form:"code" binding:"required"`
				Scope *string `form:"scope"`
			}
			if err := ctx.BindQuery(&query); err != nil {
				log.Printf("Error while parsing request params: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			dump.P(query)
			key, err := hex.DecodeString(config.API_SECRET)
			if err != nil {
				log.Printf("Error while retrieving key: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			dec, err := utils.DecryptMessage(key, *query.State)
			if err != nil {
				log.Printf("Error while decrypting message: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			var state types.Oauth2FlowState
			if err := json.Unmarshal([]byte(*dec), &state); err != nil {
				ctx.Status(http.StatusInternalServerError)
				return
			}

			// An abandoned flow, or a callback delivered twice, resolves here.
			if !lib.ConsumePendingSignIn(context.Background(), state.FlowID) {
				log.Printf("No pending sign-in for flow [%s]\n", state.FlowID)
				ctx.Redirect(http.StatusTemporaryRedirect, state.Redirect)
				return
			}

			rd := lib.GetRedisClient()
			nonceKey := fmt.Sprintf("oauth:nonce:%s", state.FlowID)
			cache := rd.Get(context.Background(), nonceKey).Val()
			if cache != state.Nonce {
				log.Println("Data mismatch: the supplied values do not match")
				ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Access denied"})
				return
			}
			nonce, err := hex.DecodeString(cache)
			if err != nil {
				log.Printf("Error while decoding hex value: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}

			oauthcfg := googleOauthConfig()
			cv := pkce.NewCodeVerifierBytes(nonce)
			token, err := oauthcfg.Exchange(
				context.Background(),
				*query.Code,
				oauth2.SetAuthURLParam(pkce.ParamCodeVerifier, cv),
			)
			if err != nil {
				log.Printf("Error while exchanging authorization code for token: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}

			user, err := fetchGoogleUser(ctx, oauthcfg, token)
			if err != nil {
				log.Printf("Error retrieving provider user: %s\n", err.Error())
				ctx.Status(http.StatusBadGateway)
				return
			}
			session, warnings, err := common.AuthenticateExternal(ctx, "", user)
			if err != nil {
				log.Printf("[AuthenticateExternal] error: %s\n", err.Error())
				ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
				return
			}
			for _, w := range warnings {
				log.Printf("[AuthenticateExternal] warning: %s\n", w)
			}

			jwt, err := utils.GenerateJWT(session.Email, session.AccountID, session.Role)
			if err != nil {
				ctx.Status(http.StatusInternalServerError)
				return
			}
			go rd.Del(context.Background(), nonceKey)
			ctx.Redirect(http.StatusTemporaryRedirect, fmt.Sprintf("%s#token=%s", state.Redirect, jwt))
		})
	return apiv1
}

func googleOauthConfig() *oauth2.Config {
	return &oauth2.Config{
		RedirectURL:  config.API_HOST + "/api/v1/oauth/google/callback",
		ClientID:     config.OAUTH_CLIENT_ID,
		ClientSecret: config.OAUTH_CLIENT_SECRET,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

func fetchGoogleUser(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*types.ProviderUser, error) {
	client := cfg.Client(ctx, token)
	res, err := client.Get("https://www.googleapis.com/oauth2/v3/userinfo")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	sbody := string(body)
	email := gjson.Get(sbody, "email").String()
	if email == "" {
		return nil, errors.New("provider user carries no email")
	}
	user := &types.ProviderUser{
		Email:       email,
		DisplayName: gjson.Get(sbody, "name").String(),
		Name:        strings.TrimSpace(fmt.Sprintf("%s %s", gjson.Get(sbody, "given_name").String(), gjson.Get(sbody, "family_name").String())),
		AvatarURL:   gjson.Get(sbody, "picture").String(),
	}
	return user, nil
}

func guestAuthRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	guest := apiv1.Group("/auth")
	guest.
		POST("/login", func(ctx *gin.Context) {
			result, status, err := controllers.AuthLogin(ctx)
			if err != nil {
				log.Printf("[AuthLogin] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"session": result.Session,
				"token":   result.Token,
			})
		}).
		POST("/register", func(ctx *gin.Context) {
			session, status, err := controllers.AuthRegister(ctx)
			if err != nil {
				log.Printf("[AuthRegister] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"session": session})
		})

	provider := apiv1.Group("/auth")
	provider.Use(middlewares.VerifyIdToken)
	provider.
		POST("/google", func(ctx *gin.Context) {
			result, status, err := controllers.AuthGoogle(ctx)
			if err != nil {
				log.Printf("[AuthGoogle] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"session":  result.Session,
				"token":    result.Token,
				"warnings": result.Warnings,
			})
		})

	device := apiv1.Group("/fcm")
	device.Use(middlewares.VerifyIdToken)
	device.
		POST("", func(ctx *gin.Context) {
			var body struct {
				Token  string   `json:"token" binding:"required"`
				Topics []string `json:"topics" binding:"required"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("[FCM] error: %v\n", err)
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			fcm, err := lib.GetFirebaseMessaging()
			if err != nil {
				log.Printf("Could not retrieve FCM instance: %v\n", err)
				ctx.Status(http.StatusInternalServerError)
				return
			}
			for _, topic := range body.Topics {
				if _, err := fcm.SubscribeToTopic(ctx, []string{body.Token}, topic); err != nil {
					log.Printf("[FCM] error subscribing to topic [%s]: %v\n", topic, err)
					ctx.Status(http.StatusBadRequest)
					return
				}
			}
			uid := ctx.GetString("uid")
			if rd := lib.GetRedisClient(); rd != nil {
				rd.JSONSet(context.Background(), fmt.Sprintf("%s:fcm", uid), "$", map[string]any{
					"token":  body.Token,
					"topics": body.Topics,
				})
			}
			ctx.Status(http.StatusOK)
		})
	return guest
}

func setupSocketServer(r *gin.Engine) *socket.Server {
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	c.SetPingInterval(time.Second)
	c.SetPingTimeout(200 * time.Millisecond)
	c.SetMaxHttpBufferSize(1_000_000)
	c.SetConnectTimeout(time.Second)
	c.SetCors(&engineiotypes.Cors{
		Origin:      "*",
		Credentials: true,
	})

	wss := socket.NewServer(nil, nil)
	wss.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		fmt.Println("[newclient]: ", string(client.Id()), client.Nsp().Name())
		client.On("message", func(args ...any) {
			client.Emit("message-back", args...)
		})
	})
	// The front desk display subscribes here for live confirmations.
	wss.Of("/checkins", nil).On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		fmt.Println("[newclient]: ", string(client.Id()), client.Nsp().Name())
	})

	lib.KafkaConsumer("brs-ws", func(body string) {
		wss.Of("/checkins", nil).Emit("checkin", body)
	}, lib.TOPIC_CHECKIN)

	r.GET("/socket.io/*any", gin.WrapH(wss.ServeHandler(c)))
	r.POST("/socket.io/*any", gin.WrapH(wss.ServeHandler(c)))
	return wss
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()
	if utils.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	boot.DownloadServiceKeyFromS3()
	boot.InitDb()
	boot.InitScheduler()
	go boot.InitBroker()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		boot.StopScheduler()
		os.Exit(0)
	}()

	router := setupRouter()
	wss := setupSocketServer(router)
	if wss != nil {
		log.Println("WS server listening for connections...")
	}

	appHost := os.Getenv("APP_HOST")
	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization", "x-secret")
		cc.AllowOriginFunc = func(origin string) bool {
			match, _ := regexp.MatchString(appHost, origin)
			if match {
				return true
			}
			match, _ = regexp.MatchString("app:mobile", origin)
			return match
		}
		cc.AllowCredentials = true
		cc.AllowAllOrigins = false
		router.Use(cors.New(cc))
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("birthdate", birthdateValidatorFunc)
	}

	router = maintenanceModeMiddleware(router)

	publicRoutes(router)

	guestAuthRoutes(router)

	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	{
		authorized = accountHandlers(authorized)
		authorized = reservationHandlers(authorized)
		authorized = checkInHandlers(authorized)
	}

	if os.Getenv("TLS_ENABLE") == "true" {
		cwd, _ := os.Getwd()
		certpath := path.Join(cwd, "certificates", "localhost.pem")
		keypath := path.Join(cwd, "certificates", "localhost-key.pem")
		if err := router.RunTLS(":9090", certpath, keypath); err != nil {
			log.Fatalf("Failed to start server: %s", err)
		}
	}
	if err := router.Run(":9090"); err != nil {
		log.Fatalf("Failed to start server: %s", err)
	}
}
