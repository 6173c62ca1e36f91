// Package es 提供了与 Elasticsearch 交互的客户端功能，
// 维护评估结果的分析索引，供管理端统计使用。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"adscan-go/internal/config"
	"adscan-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// AssessmentDoc 是写入评估索引的文档结构。
type AssessmentDoc struct {
	DocID           string    `json:"doc_id"`
	ChatID          uint      `json:"chat_id"`
	UserID          uint      `json:"user_id"`
	UserType        string    `json:"user_type"`
	AssessmentLevel string    `json:"assessment_level"`
	FinalConfidence float64   `json:"final_confidence"`
	SkinTone        string    `json:"skin_tone"`
	ImagesAnalyzed  int       `json:"images_analyzed"`
	CreatedAt       time.Time `json:"created_at"`
}

// InitES 初始化 Elasticsearch 客户端并确保评估索引存在。
func InitES(esCfg config.ElasticsearchConfig) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(esCfg.IndexName)
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它。
func createIndexIfNotExists(indexName string) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	mapping := `{
		"mappings": {
			"properties": {
				"doc_id": { "type": "keyword" },
				"chat_id": { "type": "long" },
				"user_id": { "type": "long" },
				"user_type": { "type": "keyword" },
				"assessment_level": { "type": "keyword" },
				"final_confidence": { "type": "float" },
				"skin_tone": { "type": "keyword" },
				"images_analyzed": { "type": "integer" },
				"created_at": { "type": "date" }
			}
		}
	}`

	res, err = ESClient.Indices.Create(
		indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// IndexAssessment 将一条评估摘要写入索引。
func IndexAssessment(ctx context.Context, indexName string, doc AssessmentDoc) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: doc.DocID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引评估文档到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index assessment")
	}
	return nil
}

// LevelDistribution 聚合各评估等级的文档数量。
func LevelDistribution(ctx context.Context, indexName string) (map[string]int64, error) {
	query := `{
		"size": 0,
		"aggs": {
			"levels": {
				"terms": { "field": "assessment_level" }
			}
		}
	}`

	res, err := ESClient.Search(
		ESClient.Search.WithContext(ctx),
		ESClient.Search.WithIndex(indexName),
		ESClient.Search.WithBody(strings.NewReader(query)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch aggregation failed: %s", res.String())
	}

	var parsed struct {
		Aggregations struct {
			Levels struct {
				Buckets []struct {
					Key      string `json:"key"`
					DocCount int64  `json:"doc_count"`
				} `json:"buckets"`
			} `json:"levels"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode aggregation response: %w", err)
	}

	dist := make(map[string]int64, len(parsed.Aggregations.Levels.Buckets))
	for _, b := range parsed.Aggregations.Levels.Buckets {
		dist[b.Key] = b.DocCount
	}
	return dist, nil
}

// DeleteAssessment 从索引中删除一条评估文档；文档不存在不视为错误。
func DeleteAssessment(ctx context.Context, indexName, docID string) error {
	req := esapi.DeleteRequest{Index: indexName, DocumentID: docID}
	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("failed to delete assessment doc: %s", res.String())
	}
	return nil
}
