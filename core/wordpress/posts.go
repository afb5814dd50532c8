package wordpress

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const postFields = `
    databaseId
    title
    content
    excerpt
    uri
    status
    date
    commentStatus
    featuredImage { node { databaseId sourceUrl altText } }
    categories { nodes { databaseId name } }
    tags { nodes { name } }
    postFormats { nodes { slug } }
    ncmazVideoUrl { videoUrl }
    ncmazAudioUrl { audioUrl }
    ncmazGalleryImgs {
      image1 { sourceUrl altText }
      image2 { sourceUrl altText }
      image3 { sourceUrl altText }
      image4 { sourceUrl altText }
      image5 { sourceUrl altText }
      image6 { sourceUrl altText }
      image7 { sourceUrl altText }
      image8 { sourceUrl altText }
    }
    ncPostMetaData { showRightSidebar template }`

const getPostQuery = `query GetPostForEditPostPage($databaseId: ID!) {
  post(id: $databaseId, idType: DATABASE_ID) {` + postFields + `
  }
}`

const viewerPostsQuery = `query GetViewerPostsByStatus($first: Int, $status: PostStatusEnum, $after: String, $categoryIn: [ID]) {
  viewer {
    posts(first: $first, after: $after, where: {status: $status, orderby: {field: DATE, order: DESC}, categoryIn: $categoryIn}) {
      nodes {` + postFields + `
      }
      pageInfo { endCursor hasNextPage }
    }
  }
}`

// mutationArgs are the shared arguments of the create and update mutations,
// in declaration order.
var mutationArgs = func() [][2]string {
	args := [][2]string{
		{"status", "PostStatusEnum"},
		{"title", "String"},
		{"content", "String"},
		{"categoryNodes", "[PostCategoriesNodeInput]"},
		{"ncTags", "String"},
		{"featuredImg_alt", "String"},
		{"featuredImg_url", "String"},
		{"date", "String"},
	}
	for i := 1; i <= GallerySlots; i++ {
		n := strconv.Itoa(i)
		args = append(args,
			[2]string{"img_" + n + "_alt", "String"},
			[2]string{"img_" + n + "_url", "String"})
	}
	return append(args,
		[2]string{"commentStatus", "String"},
		[2]string{"excerpt", "String"},
		[2]string{"ncmazAudioUrl", "String"},
		[2]string{"ncmazVideoUrl", "String"},
		[2]string{"postFormatName", "String"},
		[2]string{"showRightSidebar", "String"},
		[2]string{"postStyle", "String"},
	)
}()

// buildMutation renders createPost or updatePost with every shared argument.
func buildMutation(op string, withID bool) string {
	var decl, pass []string
	if withID {
		decl = append(decl, "$id: ID!")
		pass = append(pass, "id: $id")
	}
	for _, a := range mutationArgs {
		decl = append(decl, "$"+a[0]+": "+a[1])
		switch a[0] {
		case "categoryNodes":
			pass = append(pass, "categories: {append: false, nodes: $categoryNodes}")
		default:
			pass = append(pass, a[0]+": $"+a[0])
		}
	}
	name := strings.ToUpper(op[:1]) + op[1:]
	return fmt.Sprintf(`mutation %s(%s) {
  %s(input: {%s}) {
    post { databaseId uri status }
  }
}`, name, strings.Join(decl, ", "), op, strings.Join(pass, ", "))
}

var (
	createPostMutation = buildMutation("createPost", false)
	updatePostMutation = buildMutation("updatePost", true)
)

// GetPost loads one post by database id. Failures are retried.
func (c *Client) GetPost(ctx context.Context, databaseID int) (*Post, error) {
	var out struct {
		Post *Post `json:"post"`
	}
	vars := map[string]any{"databaseId": strconv.Itoa(databaseID)}
	if err := c.query(ctx, "GetPostForEditPostPage", getPostQuery, vars, &out); err != nil {
		return nil, err
	}
	if out.Post == nil {
		return nil, ErrNotFound
	}
	return out.Post, nil
}

// CreatePost runs the create mutation once.
func (c *Client) CreatePost(ctx context.Context, in PostInput) (*MutationResult, error) {
	in.ID = ""
	var out struct {
		CreatePost *struct {
			Post *MutationResult `json:"post"`
		} `json:"createPost"`
	}
	if err := c.do(ctx, createPostMutation, in.Variables(), &out); err != nil {
		return nil, err
	}
	if out.CreatePost == nil || out.CreatePost.Post == nil {
		return nil, fmt.Errorf("wordpress: createPost returned no post")
	}
	return out.CreatePost.Post, nil
}

// UpdatePost runs the update mutation once. in.ID must be set.
func (c *Client) UpdatePost(ctx context.Context, in PostInput) (*MutationResult, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("wordpress: updatePost needs a post id")
	}
	var out struct {
		UpdatePost *struct {
			Post *MutationResult `json:"post"`
		} `json:"updatePost"`
	}
	if err := c.do(ctx, updatePostMutation, in.Variables(), &out); err != nil {
		return nil, err
	}
	if out.UpdatePost == nil || out.UpdatePost.Post == nil {
		return nil, fmt.Errorf("wordpress: updatePost returned no post")
	}
	return out.UpdatePost.Post, nil
}
