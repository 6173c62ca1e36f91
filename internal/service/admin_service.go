package service

import (
	"context"
	"errors"

	"adscan-go/internal/config"
	"adscan-go/internal/model"
	"adscan-go/internal/repository"
	"adscan-go/pkg/es"
	"adscan-go/pkg/log"
)

// Analytics 是管理端统计面板的数据结构。
type Analytics struct {
	TotalUsers        int64            `json:"total_users"`
	TotalAssessments  int64            `json:"total_assessments"`
	AssessmentsWeek   int64            `json:"assessments_last_7_days"`
	LevelDistribution map[string]int64 `json:"level_distribution"`
}

// AdminService 接口定义了管理端的用户管理与统计操作。
type AdminService interface {
	ListUsers(page, pageSize int) ([]model.User, int64, error)
	UpdateUser(userID uint, role string, isActive *bool) (*model.User, error)
	DeleteUser(userID uint) error
	GetAnalytics(ctx context.Context) (*Analytics, error)
}

type adminService struct {
	userRepo repository.UserRepository
	chatRepo repository.ChatRepository
	esIndex  string
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(userRepo repository.UserRepository, chatRepo repository.ChatRepository) AdminService {
	return &adminService{
		userRepo: userRepo,
		chatRepo: chatRepo,
		esIndex:  config.Conf.Elasticsearch.IndexName,
	}
}

// ListUsers 分页返回用户列表和总数。
func (s *adminService) ListUsers(page, pageSize int) ([]model.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.userRepo.FindWithPagination((page-1)*pageSize, pageSize)
}

// UpdateUser 更新用户的角色和/或启用状态。
func (s *adminService) UpdateUser(userID uint, role string, isActive *bool) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if role != "" {
		switch role {
		case model.RolePatient, model.RoleClinician, model.RoleAdmin:
			user.Role = role
		default:
			return nil, errors.New("不支持的用户角色")
		}
	}
	if isActive != nil {
		user.IsActive = *isActive
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser 删除一个用户账号。
func (s *adminService) DeleteUser(userID uint) error {
	return s.userRepo.Delete(userID)
}

// GetAnalytics 汇总统计数据：数据库中的用户数与评估数，
// 加上来自 Elasticsearch 的评估等级分布。索引查询失败时
// 等级分布降级为空，不影响其余统计返回。
func (s *adminService) GetAnalytics(ctx context.Context) (*Analytics, error) {
	totalUsers, err := s.userRepo.CountAll()
	if err != nil {
		return nil, err
	}
	totalAssessments, err := s.chatRepo.CountAll()
	if err != nil {
		return nil, err
	}
	weekCount, err := s.chatRepo.CountSince(7)
	if err != nil {
		return nil, err
	}

	dist, err := es.LevelDistribution(ctx, s.esIndex)
	if err != nil {
		log.Errorf("[AdminService] 查询评估等级分布失败: %v", err)
		dist = map[string]int64{}
	}

	return &Analytics{
		TotalUsers:        totalUsers,
		TotalAssessments:  totalAssessments,
		AssessmentsWeek:   weekCount,
		LevelDistribution: dist,
	}, nil
}
