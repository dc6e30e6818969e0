package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix              = "user:%d"
	CertificateVerifyKeyPrefix = "certificate:verify:%s"
	UnreadCountKeyPrefix       = "notifications:unread:%d"
)

const (
	UserTTL              = 5 * time.Minute
	CertificateVerifyTTL = 10 * time.Minute
	UnreadCountTTL       = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func CertificateVerifyKey(number string) string {
	return fmt.Sprintf(CertificateVerifyKeyPrefix, number)
}

func UnreadCountKey(userID uint) string {
	return fmt.Sprintf(UnreadCountKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateCertificate(ctx context.Context, number string) {
	Invalidate(ctx, CertificateVerifyKey(number))
}

func InvalidateUnreadCount(ctx context.Context, userID uint) {
	Invalidate(ctx, UnreadCountKey(userID))
}
