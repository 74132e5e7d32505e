package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"musicbingo/auth"     //ゲートウェイの識別トークン
	"musicbingo/bingo"    //ビンゴのゲームロジック
	"musicbingo/database" //セッションテーブルのストア (Redis, PostgreSQL, HTTP, メモリ)
	"musicbingo/handlers" //ゲートウェイのHTTP API
	"musicbingo/models"   //モデル定義
	"musicbingo/spotify"  //プレイリストの取得
	"musicbingo/utils"    //ロガー、設定、Cronジョブ(アイドルクライアントの削除)

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	cfg := &models.Config{}
	cobra.CheckErr(utils.NewCommand(cfg, serve).Execute())
}

func serve(ctx context.Context, cfg *models.Config) error {
	logger, err := utils.InitLogger(cfg.Verbose) // ロガーの初期化
	if err != nil {
		return err
	}
	defer logger.Sync() // ロガーのクリーンアップ

	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	store, closeStore, err := database.Open(*cfg, logger)
	if err != nil {
		logger.Error("セッションストアの初期化に失敗しました", zap.Error(err))
		return err
	}
	defer closeStore()

	opts := []bingo.Option{bingo.WithPollInterval(cfg.PollInterval)}
	if cfg.SpotifyEnabled() {
		creds := spotify.NewClientCredentials(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyTokenURL, nil)
		opts = append(opts, bingo.WithTrackSource(spotify.NewClient(creds, cfg.SpotifyAPIURL, nil, logger)))
	} else {
		logger.Info("Spotify credentials not set; games must be created from a track list")
	}

	registry := bingo.NewRegistry(store, logger, opts...)
	defer registry.Close()

	// クーロンスケジューラのセットアップと呼び出し
	sweeper, err := utils.CronSweeper(registry, cfg.ClientIdleTimeout, logger)
	if err != nil {
		return err
	}
	defer sweeper.Stop()

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Bind, strconv.Itoa(cfg.Port)),
		Handler:           handlers.NewRouter(registry, issuer, cfg.CORSOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err, ok := <-serveErr:
		if ok {
			logger.Error("Server stopped", zap.Error(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
