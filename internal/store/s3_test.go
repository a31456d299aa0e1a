// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 implements API for tests. Bodies small enough for a single part
// go through PutObject only.
type fakeS3 struct {
	headErr error

	putInput *s3.PutObjectInput
	putBody  []byte
	putErr   error
}

func (f *fakeS3) HeadObject(_ context.Context, _ *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.putInput = in
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.putBody = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) CreateMultipartUpload(_ context.Context, _ *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected in tests")
}

func (f *fakeS3) UploadPart(_ context.Context, _ *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not expected in tests")
}

func (f *fakeS3) CompleteMultipartUpload(_ context.Context, _ *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected in tests")
}

func (f *fakeS3) AbortMultipartUpload(_ context.Context, _ *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected in tests")
}

func TestExistsPresent(t *testing.T) {
	s := NewS3WithClient(&fakeS3{}, "papers-bucket")

	exists, err := s.Exists(context.Background(), "arxiv/2505.05471v1.pdf")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExistsNotFoundIsAuthoritative(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"typed NotFound", &s3types.NotFound{}},
		{"api error code", &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewS3WithClient(&fakeS3{headErr: tt.err}, "papers-bucket")

			exists, err := s.Exists(context.Background(), "arxiv/2505.05471v1.pdf")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestExistsServiceErrorPropagates(t *testing.T) {
	headErr := &smithy.GenericAPIError{Code: "SlowDown", Message: "Reduce your request rate"}
	s := NewS3WithClient(&fakeS3{headErr: headErr}, "papers-bucket")

	_, err := s.Exists(context.Background(), "arxiv/2505.05471v1.pdf")
	require.Error(t, err)
	// A throttle or outage must never read as "absent".
	var apiErr smithy.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "SlowDown", apiErr.ErrorCode())
}

func TestPutStreamsBody(t *testing.T) {
	fake := &fakeS3{}
	s := NewS3WithClient(fake, "papers-bucket")

	err := s.Put(context.Background(), "arxiv/2505.05471v1.pdf", strings.NewReader("%PDF-1.4 body"), "application/pdf")
	require.NoError(t, err)

	require.NotNil(t, fake.putInput)
	assert.Equal(t, "papers-bucket", *fake.putInput.Bucket)
	assert.Equal(t, "arxiv/2505.05471v1.pdf", *fake.putInput.Key)
	assert.Equal(t, "application/pdf", *fake.putInput.ContentType)
	assert.Equal(t, "%PDF-1.4 body", string(fake.putBody))
}

func TestPutError(t *testing.T) {
	fake := &fakeS3{putErr: errors.New("boom")}
	s := NewS3WithClient(fake, "papers-bucket")

	err := s.Put(context.Background(), "arxiv/2505.05471v1.pdf", strings.NewReader("x"), "application/pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "papers-bucket/arxiv/2505.05471v1.pdf")
}