package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"foodcollab/domain/dto"
	"foodcollab/domain/model"
	"foodcollab/domain/repository"
	"foodcollab/infrastructure/logger"
)

type IUserUsecase interface {
	Login(ctx context.Context, req model.ReqLogin) dto.Res
	Register(ctx context.Context, req model.ReqRegister) dto.Res
}

type userUsecase struct {
	userRepository repository.IUser
	secretKey      string
}

func NewUserUsecase(userRepository repository.IUser, secretKey string) IUserUsecase {
	return &userUsecase{userRepository: userRepository, secretKey: secretKey}
}

func (u *userUsecase) Login(ctx context.Context, req model.ReqLogin) dto.Res {
	var res dto.Res
	user, err := u.userRepository.GetByUserName(ctx, req.UserName)
	if err != nil || user.Password != req.Password {
		res.ResponseCode = "401"
		res.ResponseMessage = "Invalid username or password"
		return res
	}

	claims := model.UserClaims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    fmt.Sprintf("%d", user.ID),
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
		},
		UserName: user.UserName,
		Role:     user.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(u.secretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while signing token")
		res.ResponseCode = "500"
		res.ResponseMessage = "Internal server error"
		return res
	}

	res.ResponseCode = "200"
	res.ResponseMessage = "OK"
	res.Data = map[string]string{"access_token": signed}
	return res
}

func (u *userUsecase) Register(ctx context.Context, req model.ReqRegister) dto.Res {
	var res dto.Res
	role := req.Role
	if role != "business" {
		role = "influencer"
	}
	err := u.userRepository.CreateUser(ctx, model.User{
		Name:     req.Name,
		UserName: req.UserName,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while creating user")
		res.ResponseCode = "400"
		res.ResponseMessage = "Unable to register user"
		return res
	}
	res.ResponseCode = "200"
	res.ResponseMessage = "OK"
	return res
}
