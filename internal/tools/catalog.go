package tools

// ツール ID
const (
	IDTextToImage         = "text-to-image"
	IDPromptRefiner       = "prompt-refiner"
	IDImageEditor         = "image-editor"
	IDImageRestyler       = "image-restyler"
	IDConsistentCharacter = "consistent-character"
	IDTexture             = "texture"
	IDAssetPack           = "asset-pack"
	IDUIComponent         = "ui-component"
	IDImageToVideo        = "image-to-video"
	IDVideoRestyle        = "video-restyle"
	IDVideoStyleTransfer  = "video-style-transfer"
	IDSceneInterpolation  = "scene-interpolation"
	IDTextToVideo         = "text-to-video"
	IDStoryboard          = "storyboard"
	IDSpriteSheet         = "sprite-sheet"
	IDSoundscape          = "soundscape"
	IDMusicToImage        = "music-to-image"
)

// Shape はツールの操作の型です。クライアントはこれで入力フォームを選びます。
type Shape string

const (
	ShapeSingle  Shape = "single-shot"
	ShapeTwoStep Shape = "two-step"
	ShapeEdit    Shape = "edit"
	ShapeBatch   Shape = "batch"
	ShapeAudio   Shape = "audio"
	ShapeVideo   Shape = "video"
)

// Entry はカタログ上の 1 ツールです。
type Entry struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Shape    Shape    `json:"shape"`
	Models   []string `json:"models"`
	Inputs   []string `json:"inputs"`
	KeyGated bool     `json:"key_gated"`
}

// Section はカタログの見出しとその配下のツールです。
type Section struct {
	Title string  `json:"title"`
	Tools []Entry `json:"tools"`
}

// Catalog は表示順に並んだツールカタログを返します。
func Catalog(m Models) []Section {
	return []Section{
		{
			Title: "Foundational Tools",
			Tools: []Entry{
				{ID: IDTextToImage, Title: "Text-to-Image Generation", Shape: ShapeSingle, Models: []string{m.Image}, Inputs: []string{"prompt"}},
				{ID: IDPromptRefiner, Title: "AI Prompt Refinement", Shape: ShapeSingle, Models: []string{m.Text}, Inputs: []string{"prompt"}},
				{ID: IDImageEditor, Title: "AI Image Editor ('Live Prompting')", Shape: ShapeEdit, Models: []string{m.Edit}, Inputs: []string{"prompt", "image"}},
				{ID: IDImageRestyler, Title: "Image to Image Restyle", Shape: ShapeEdit, Models: []string{m.Edit}, Inputs: []string{"prompt", "image"}},
			},
		},
		{
			Title: "Design & Asset Generation",
			Tools: []Entry{
				{ID: IDConsistentCharacter, Title: "'Consistent Character' Creation", Shape: ShapeTwoStep, Models: []string{m.Text, m.Image}, Inputs: []string{"prompt"}},
				{ID: IDTexture, Title: "Seamless Texture Generator", Shape: ShapeSingle, Models: []string{m.Image}, Inputs: []string{"prompt"}},
				{ID: IDAssetPack, Title: "Style-Consistent Asset Pack", Shape: ShapeBatch, Models: []string{m.Text, m.Image}, Inputs: []string{"style", "items"}},
				{ID: IDUIComponent, Title: "UI Component Generator", Shape: ShapeSingle, Models: []string{m.Image}, Inputs: []string{"prompt"}},
			},
		},
		{
			Title: "Video & Animation Suite",
			Tools: []Entry{
				{ID: IDImageToVideo, Title: "Image-to-Video Generation", Shape: ShapeVideo, Models: []string{m.Video}, Inputs: []string{"prompt", "image"}, KeyGated: true},
				{ID: IDVideoRestyle, Title: "Video-to-Video Restyle", Shape: ShapeVideo, Models: []string{m.Video}, Inputs: []string{"prompt", "video"}, KeyGated: true},
				{ID: IDVideoStyleTransfer, Title: "AI Video Style Transfer", Shape: ShapeVideo, Models: []string{m.Video}, Inputs: []string{"prompt", "style"}, KeyGated: true},
				{ID: IDSceneInterpolation, Title: "AI Video Scene Interpolation", Shape: ShapeVideo, Models: []string{m.Video}, Inputs: []string{"image", "end_image", "prompt"}, KeyGated: true},
				{ID: IDTextToVideo, Title: "Text-to-Video", Shape: ShapeVideo, Models: []string{m.Text, m.Video}, Inputs: []string{"prompt"}, KeyGated: true},
				{ID: IDStoryboard, Title: "Interactive 'Storyboard' Mode", Shape: ShapeBatch, Models: []string{m.Text, m.Image}, Inputs: []string{"prompt"}},
				{ID: IDSpriteSheet, Title: "Animated Sprite Sheet Generator", Shape: ShapeBatch, Models: []string{m.Text, m.Image}, Inputs: []string{"prompt"}},
			},
		},
		{
			Title: "Audio Tools",
			Tools: []Entry{
				{ID: IDSoundscape, Title: "'SoundScape' AI Audio Generation", Shape: ShapeAudio, Models: []string{m.TTS}, Inputs: []string{"prompt"}},
				{ID: IDMusicToImage, Title: "Music to Image", Shape: ShapeTwoStep, Models: []string{m.Flash, m.Image}, Inputs: []string{"audio"}},
			},
		},
	}
}
